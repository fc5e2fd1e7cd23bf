package gh

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emperror.dev/errors"
)

type PullRequest struct {
	Number  int    `json:"number"`
	State   string `json:"state"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Draft   bool   `json:"draft"`
	HTMLURL string `json:"html_url"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		// Label is "owner:ref", qualified for cross-repository heads.
		Label string `json:"label"`
		Ref   string `json:"ref"`
		SHA   string `json:"sha"`
	} `json:"head"`
	Base struct {
		Label string `json:"label"`
		Ref   string `json:"ref"`
		SHA   string `json:"sha"`
	} `json:"base"`
	Merged bool `json:"merged"`
	// Mergeable is null while GitHub is still computing mergeability.
	Mergeable      *bool      `json:"mergeable"`
	MergeableState string     `json:"mergeable_state"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	Commits        int        `json:"commits"`
	ChangedFiles   int        `json:"changed_files"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	MergedAt       *time.Time `json:"merged_at"`
}

type PullRequestFile struct {
	SHA       string `json:"sha"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

type PullRequestsService struct {
	endpoint
}

type PullRequestListOpts struct {
	// State is open, closed or all (open when empty).
	State string
	// Head filters by head branch; it must be of the form "user:ref-name".
	Head string
	// Base filters by base branch name.
	Base      string
	Sort      string
	Direction string
	ListOptions
}

func (o *PullRequestListOpts) values() url.Values {
	q := url.Values{}
	if o.State != "" {
		q.Set("state", o.State)
	}
	if o.Head != "" {
		q.Set("head", o.Head)
	}
	if o.Base != "" {
		q.Set("base", o.Base)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Direction != "" {
		q.Set("direction", o.Direction)
	}
	return o.ListOptions.values(q)
}

// List returns the repository's pull requests. The Head filter is validated
// locally: GitHub silently ignores a head without the "user:" prefix, which
// turns a filtered listing into a full one.
func (s *PullRequestsService) List(opts *PullRequestListOpts) *Pages[PullRequest] {
	if opts == nil {
		opts = &PullRequestListOpts{}
	}
	if opts.Head != "" && !strings.Contains(opts.Head, ":") {
		return &Pages[PullRequest]{
			err:  &ValidationError{Op: "pulls.list", Reason: `"head" must be of the form "user:ref-name"`},
			done: true,
		}
	}
	return listPages[PullRequest](s.client, s.path("/pulls"), opts.values())
}

func (s *PullRequestsService) Get(ctx context.Context, number int) (*PullRequest, error) {
	var pr PullRequest
	if err := s.client.rest(ctx, http.MethodGet, s.path("/pulls/%d", number), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// PullRequestFindOpts select a single open pull request: an explicit Number
// wins; otherwise the Head/Base filter must match exactly one.
type PullRequestFindOpts struct {
	Number int
	// Head is the head branch; an unqualified name is taken to be a branch
	// of the repository owner.
	Head string
	Base string
}

// Find resolves a single open pull request by number or by head/base filter.
func (s *PullRequestsService) Find(ctx context.Context, opts PullRequestFindOpts) (*PullRequest, error) {
	if opts.Number != 0 {
		pr, err := s.Get(ctx, opts.Number)
		if err != nil {
			return nil, err
		}
		if pr.State != "open" {
			return nil, errors.Errorf("pull request #%d is %s", pr.Number, pr.State)
		}
		return pr, nil
	}
	head := opts.Head
	if head != "" && !strings.Contains(head, ":") {
		head = s.owner + ":" + head
	}
	prs, err := s.List(&PullRequestListOpts{
		State: "open",
		Head:  head,
		Base:  opts.Base,
	}).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(prs) != 1 {
		return nil, errors.Errorf(
			"there are %d open pull requests matching the filter criteria", len(prs),
		)
	}
	return &prs[0], nil
}

type PullRequestCreateOpts struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
	Draft *bool  `json:"draft,omitempty"`

	MaintainerCanModify *bool `json:"maintainer_can_modify,omitempty"`
}

func (s *PullRequestsService) Create(ctx context.Context, opts PullRequestCreateOpts) (*PullRequest, error) {
	if err := missingFields("pulls.create", map[string]string{
		"title": opts.Title,
		"head":  opts.Head,
		"base":  opts.Base,
	}); err != nil {
		return nil, err
	}
	var pr PullRequest
	if err := s.client.rest(ctx, http.MethodPost, s.path("/pulls"), opts, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

type PullRequestEditOpts struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	State string `json:"state,omitempty"`
	Base  string `json:"base,omitempty"`

	MaintainerCanModify *bool `json:"maintainer_can_modify,omitempty"`
}

func (s *PullRequestsService) Edit(ctx context.Context, number int, opts PullRequestEditOpts) (*PullRequest, error) {
	var pr PullRequest
	if err := s.client.rest(ctx, http.MethodPatch, s.path("/pulls/%d", number), opts, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// MergeOpts are the optional parameters of a pull request merge. SHA, when
// set, makes the merge fail unless the head is still at that commit.
type MergeOpts struct {
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	SHA           string `json:"sha,omitempty"`
	// Method is merge, squash or rebase (merge when empty).
	Method string `json:"merge_method,omitempty"`
}

type MergeResult struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// Merge merges the pull request. GitHub reports "not mergeable" as HTTP 405
// and head-moved/state conflicts as 409; both surface as *ConflictError.
func (s *PullRequestsService) Merge(ctx context.Context, number int, opts MergeOpts) (*MergeResult, error) {
	var result MergeResult
	err := s.client.rest(ctx, http.MethodPut, s.path("/pulls/%d/merge", number), opts, &result)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusMethodNotAllowed {
			return nil, &ConflictError{reqErr.httpError}
		}
		return nil, err
	}
	return &result, nil
}

// Merged reports whether the pull request has been merged.
func (s *PullRequestsService) Merged(ctx context.Context, number int) (bool, error) {
	err := s.client.rest(ctx, http.MethodGet, s.path("/pulls/%d/merge", number), nil, nil)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Commits lists the commits on the pull request.
func (s *PullRequestsService) Commits(number int, opts *ListOptions) *Pages[Commit] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPages[Commit](s.client, s.path("/pulls/%d/commits", number), opts.values(nil))
}

// Files lists the files changed by the pull request.
func (s *PullRequestsService) Files(number int, opts *ListOptions) *Pages[PullRequestFile] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPages[PullRequestFile](s.client, s.path("/pulls/%d/files", number), opts.values(nil))
}

// Status fetches the combined commit status of the pull request's head.
func (s *PullRequestsService) Status(ctx context.Context, number int) (*CombinedStatus, error) {
	pr, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	var status CombinedStatus
	if err := s.client.rest(ctx, http.MethodGet, s.path("/commits/%s/status", pr.Head.SHA), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
