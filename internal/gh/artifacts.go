package gh

import (
	"context"
	"net/http"
	"time"
)

type Artifact struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SizeInBytes        int64     `json:"size_in_bytes"`
	Expired            bool      `json:"expired"`
	ArchiveDownloadURL string    `json:"archive_download_url"`
	CreatedAt          time.Time `json:"created_at"`
}

type ArtifactsService struct {
	endpoint
}

// List lists all artifacts in the repository.
func (s *ArtifactsService) List(opts *ListOptions) *Pages[Artifact] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPagesKeyed[Artifact](s.client, s.path("/actions/artifacts"), opts.values(nil), "artifacts")
}

// ListForRun lists the artifacts produced by one workflow run.
func (s *ArtifactsService) ListForRun(runID int64, opts *ListOptions) *Pages[Artifact] {
	if opts == nil {
		opts = &ListOptions{}
	}
	return listPagesKeyed[Artifact](
		s.client,
		s.path("/actions/runs/%d/artifacts", runID),
		opts.values(nil),
		"artifacts",
	)
}

func (s *ArtifactsService) Get(ctx context.Context, id int64) (*Artifact, error) {
	var artifact Artifact
	if err := s.client.rest(ctx, http.MethodGet, s.path("/actions/artifacts/%d", id), nil, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (s *ArtifactsService) Delete(ctx context.Context, id int64) error {
	return s.client.rest(ctx, http.MethodDelete, s.path("/actions/artifacts/%d", id), nil, nil)
}
