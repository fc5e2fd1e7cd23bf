package gh

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	WorkflowID int64     `json:"workflow_id"`
	RunNumber  int       `json:"run_number"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HeadBranch string    `json:"head_branch"`
	HeadSHA    string    `json:"head_sha"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RunsService struct {
	endpoint
}

type RunListOpts struct {
	// Branch filters runs by head branch.
	Branch string
	// Event filters by the event that triggered the run (push,
	// repository_dispatch, ...).
	Event string
	// Status filters by status or conclusion (completed, success, ...).
	Status string
	ListOptions
}

func (o *RunListOpts) values() url.Values {
	q := url.Values{}
	if o.Branch != "" {
		q.Set("branch", o.Branch)
	}
	if o.Event != "" {
		q.Set("event", o.Event)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return o.ListOptions.values(q)
}

// List lists workflow runs across the repository, newest first.
func (s *RunsService) List(opts *RunListOpts) *Pages[WorkflowRun] {
	if opts == nil {
		opts = &RunListOpts{}
	}
	return listPagesKeyed[WorkflowRun](s.client, s.path("/actions/runs"), opts.values(), "workflow_runs")
}

// ListForWorkflow lists the runs of one workflow (by ID or file name).
func (s *RunsService) ListForWorkflow(idOrFileName string, opts *RunListOpts) *Pages[WorkflowRun] {
	if opts == nil {
		opts = &RunListOpts{}
	}
	return listPagesKeyed[WorkflowRun](
		s.client,
		s.path("/actions/workflows/%s/runs", idOrFileName),
		opts.values(),
		"workflow_runs",
	)
}

func (s *RunsService) Get(ctx context.Context, id int64) (*WorkflowRun, error) {
	var run WorkflowRun
	if err := s.client.rest(ctx, http.MethodGet, s.path("/actions/runs/%d", id), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ReRun requeues a completed run.
func (s *RunsService) ReRun(ctx context.Context, id int64) error {
	return s.client.rest(ctx, http.MethodPost, s.path("/actions/runs/%d/rerun", id), nil, nil)
}

// Cancel cancels an in-progress run.
func (s *RunsService) Cancel(ctx context.Context, id int64) error {
	return s.client.rest(ctx, http.MethodPost, s.path("/actions/runs/%d/cancel", id), nil, nil)
}

func (s *RunsService) Delete(ctx context.Context, id int64) error {
	return s.client.rest(ctx, http.MethodDelete, s.path("/actions/runs/%d", id), nil, nil)
}
