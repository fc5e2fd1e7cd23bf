package gh

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
		Committer struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	HTMLURL string `json:"html_url"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// CombinedStatus is the combined commit status for a ref.
type CombinedStatus struct {
	State      string `json:"state"`
	TotalCount int    `json:"total_count"`
	SHA        string `json:"sha"`
	Statuses   []struct {
		State       string `json:"state"`
		Context     string `json:"context"`
		Description string `json:"description"`
		TargetURL   string `json:"target_url"`
	} `json:"statuses"`
}

type CommitsService struct {
	endpoint
}

type CommitListOpts struct {
	// SHA is the branch name or commit SHA to start listing from (the
	// default branch when empty).
	SHA string
	// Path restricts the listing to commits touching this path.
	Path string
	// Author filters by author login or email.
	Author string
	Since  time.Time
	Until  time.Time
	ListOptions
}

func (o *CommitListOpts) values() url.Values {
	q := url.Values{}
	if o.SHA != "" {
		q.Set("sha", o.SHA)
	}
	if o.Path != "" {
		q.Set("path", o.Path)
	}
	if o.Author != "" {
		q.Set("author", o.Author)
	}
	if !o.Since.IsZero() {
		q.Set("since", o.Since.Format(time.RFC3339))
	}
	if !o.Until.IsZero() {
		q.Set("until", o.Until.Format(time.RFC3339))
	}
	return o.ListOptions.values(q)
}

// List returns the commit history, newest first.
func (s *CommitsService) List(opts *CommitListOpts) *Pages[Commit] {
	if opts == nil {
		opts = &CommitListOpts{}
	}
	return listPages[Commit](s.client, s.path("/commits"), opts.values())
}

// Get fetches a single commit by SHA, branch or tag name.
func (s *CommitsService) Get(ctx context.Context, ref string) (*Commit, error) {
	var commit Commit
	if err := s.client.rest(ctx, http.MethodGet, s.path("/commits/%s", ref), nil, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// Status fetches the combined commit status for a ref.
func (s *CommitsService) Status(ctx context.Context, ref string) (*CombinedStatus, error) {
	var status CombinedStatus
	if err := s.client.rest(ctx, http.MethodGet, s.path("/commits/%s/status", ref), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
