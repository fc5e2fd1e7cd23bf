package gh

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"
)

// endpoint binds a client to one repository's URL space. Every accessor
// family embeds it.
type endpoint struct {
	client *Client
	owner  string
	repo   string
}

// path builds an endpoint path under /repos/{owner}/{repo}. sub is a format
// string for the remainder of the path ("" for the repository itself).
func (e endpoint) path(sub string, args ...interface{}) string {
	p := fmt.Sprintf("/repos/%s/%s", e.owner, e.repo)
	if sub != "" {
		p += fmt.Sprintf(sub, args...)
	}
	return p
}

// Repository is a handle on one repository's API surface. Constructing it
// performs no network traffic; requests happen only when an accessor is
// invoked. The endpoint families are explicit fields so that the available
// surface is visible in the type, not discovered at call time.
type Repository struct {
	Owner string
	Name  string

	Releases     *ReleasesService
	Tags         *TagsService
	Commits      *CommitsService
	Issues       *IssuesService
	Branches     *BranchesService
	PullRequests *PullRequestsService
	Checks       *ChecksService
	Workflows    *WorkflowsService
	Runs         *RunsService
	Artifacts    *ArtifactsService
	Jobs         *JobsService
	Contents     *ContentsService

	ep endpoint
}

// Repository returns a handle for owner/name. No request is made; the
// repository is not checked for existence until an accessor is used.
func (c *Client) Repository(owner, name string) *Repository {
	ep := endpoint{client: c, owner: owner, repo: name}
	return &Repository{
		Owner:        owner,
		Name:         name,
		Releases:     &ReleasesService{ep},
		Tags:         &TagsService{ep},
		Commits:      &CommitsService{ep},
		Issues:       &IssuesService{ep},
		Branches:     &BranchesService{ep},
		PullRequests: &PullRequestsService{ep},
		Checks:       &ChecksService{ep},
		Workflows:    &WorkflowsService{ep},
		Runs:         &RunsService{ep},
		Artifacts:    &ArtifactsService{ep},
		Jobs:         &JobsService{ep},
		Contents:     &ContentsService{ep},
		ep:           ep,
	}
}

// RepositoryBySlug returns a handle for an "owner/name" slug.
func (c *Client) RepositoryBySlug(slug string) (*Repository, error) {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" {
		return nil, errors.Errorf(
			"unable to parse repository slug (expected <owner>/<repo>): %q",
			slug,
		)
	}
	return c.Repository(owner, name), nil
}

// RepoInfo is the repository record itself (GET /repos/{owner}/{repo} and
// elements of organization listings).
type RepoInfo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	Fork          bool   `json:"fork"`
	Archived      bool   `json:"archived"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
	PushedAt  *time.Time `json:"pushed_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Info fetches the repository record.
func (r *Repository) Info(ctx context.Context) (*RepoInfo, error) {
	var info RepoInfo
	if err := r.ep.client.rest(ctx, http.MethodGet, r.ep.path(""), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DispatchEvent triggers a repository_dispatch event. Workflows listening
// for the given event type will run; payload (optional) is passed through as
// the client payload.
func (r *Repository) DispatchEvent(ctx context.Context, eventType string, payload interface{}) error {
	if eventType == "" {
		return &ValidationError{Op: "dispatches.create", Missing: []string{"event_type"}}
	}
	body := struct {
		EventType     string      `json:"event_type"`
		ClientPayload interface{} `json:"client_payload,omitempty"`
	}{eventType, payload}
	return r.ep.client.rest(ctx, http.MethodPost, r.ep.path("/dispatches"), body, nil)
}

// MergeBranchOpts are the parameters of a branch merge. Base and Head are
// required; Head may be a branch name or a commit SHA.
type MergeBranchOpts struct {
	Base          string `json:"base"`
	Head          string `json:"head"`
	CommitMessage string `json:"commit_message,omitempty"`
}

// MergeBranch merges head into base (POST /repos/{owner}/{repo}/merges).
// It returns the merge commit, or nil when base already contained head
// (HTTP 204). Merge conflicts surface as *ConflictError.
func (r *Repository) MergeBranch(ctx context.Context, opts MergeBranchOpts) (*Commit, error) {
	if err := missingFields("merges.create", map[string]string{
		"base": opts.Base,
		"head": opts.Head,
	}); err != nil {
		return nil, err
	}
	var commit Commit
	if err := r.ep.client.rest(ctx, http.MethodPost, r.ep.path("/merges"), opts, &commit); err != nil {
		return nil, err
	}
	if commit.SHA == "" {
		// 204: nothing to merge.
		return nil, nil
	}
	return &commit, nil
}
