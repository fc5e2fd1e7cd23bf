package gh

import (
	"context"
	"net/http"
	"time"
)

type Workflow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	State     string    `json:"state"`
	BadgeURL  string    `json:"badge_url"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkflowsService struct {
	endpoint
}

func (s *WorkflowsService) List(opts *ListOptions) *Pages[Workflow] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPagesKeyed[Workflow](s.client, s.path("/actions/workflows"), opts.values(nil), "workflows")
}

// Get fetches a workflow by ID or by workflow file name (e.g. "ci.yml").
func (s *WorkflowsService) Get(ctx context.Context, idOrFileName string) (*Workflow, error) {
	var wf Workflow
	if err := s.client.rest(ctx, http.MethodGet, s.path("/actions/workflows/%s", idOrFileName), nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}
