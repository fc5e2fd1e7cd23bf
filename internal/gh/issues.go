package gh

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Milestone struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Body      string     `json:"body"`
	HTMLURL   string     `json:"html_url"`
	Labels    []Label    `json:"labels"`
	Milestone *Milestone `json:"milestone"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	// PullRequest is set when this "issue" is actually a pull request (the
	// issues listing includes them).
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

// IsPullRequest reports whether this issue record is a pull request.
func (i *Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

type IssuesService struct {
	endpoint
}

type IssueListOpts struct {
	// State is open, closed or all (open when empty).
	State string
	// Labels restricts to issues carrying all the given labels.
	Labels []string
	// Sort is created, updated or comments.
	Sort      string
	Direction string
	Since     time.Time
	ListOptions
}

func (o *IssueListOpts) values() url.Values {
	q := url.Values{}
	if o.State != "" {
		q.Set("state", o.State)
	}
	if len(o.Labels) > 0 {
		q.Set("labels", strings.Join(o.Labels, ","))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Direction != "" {
		q.Set("direction", o.Direction)
	}
	if !o.Since.IsZero() {
		q.Set("since", o.Since.Format(time.RFC3339))
	}
	return o.ListOptions.values(q)
}

func (s *IssuesService) List(opts *IssueListOpts) *Pages[Issue] {
	if opts == nil {
		opts = &IssueListOpts{}
	}
	return listPages[Issue](s.client, s.path("/issues"), opts.values())
}

func (s *IssuesService) Get(ctx context.Context, number int) (*Issue, error) {
	var issue Issue
	if err := s.client.rest(ctx, http.MethodGet, s.path("/issues/%d", number), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

type IssueCreateOpts struct {
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Milestone *int     `json:"milestone,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

func (s *IssuesService) Create(ctx context.Context, opts IssueCreateOpts) (*Issue, error) {
	if err := missingFields("issues.create", map[string]string{
		"title": opts.Title,
	}); err != nil {
		return nil, err
	}
	var issue Issue
	if err := s.client.rest(ctx, http.MethodPost, s.path("/issues"), opts, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

type IssueEditOpts struct {
	Title     string   `json:"title,omitempty"`
	Body      string   `json:"body,omitempty"`
	State     string   `json:"state,omitempty"`
	Milestone *int     `json:"milestone,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

func (s *IssuesService) Edit(ctx context.Context, number int, opts IssueEditOpts) (*Issue, error) {
	var issue Issue
	if err := s.client.rest(ctx, http.MethodPatch, s.path("/issues/%d", number), opts, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}
