package gh

import (
	"context"
	"net/http"
	"time"
)

type Job struct {
	ID          int64      `json:"id"`
	RunID       int64      `json:"run_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Steps       []struct {
		Name       string `json:"name"`
		Number     int    `json:"number"`
		Status     string `json:"status"`
		Conclusion string `json:"conclusion"`
	} `json:"steps"`
}

type JobsService struct {
	endpoint
}

// ListForRun lists the jobs of a workflow run.
func (s *JobsService) ListForRun(runID int64, opts *ListOptions) *Pages[Job] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPagesKeyed[Job](s.client, s.path("/actions/runs/%d/jobs", runID), opts.values(nil), "jobs")
}

func (s *JobsService) Get(ctx context.Context, id int64) (*Job, error) {
	var job Job
	if err := s.client.rest(ctx, http.MethodGet, s.path("/actions/jobs/%d", id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
