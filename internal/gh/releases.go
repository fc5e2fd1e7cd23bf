package gh

import (
	"context"
	"net/http"
	"time"
)

type Release struct {
	ID              int64      `json:"id"`
	TagName         string     `json:"tag_name"`
	TargetCommitish string     `json:"target_commitish"`
	Name            string     `json:"name"`
	Body            string     `json:"body"`
	Draft           bool       `json:"draft"`
	Prerelease      bool       `json:"prerelease"`
	CreatedAt       time.Time  `json:"created_at"`
	PublishedAt     *time.Time `json:"published_at"`
	HTMLURL         string     `json:"html_url"`
}

// ReleasesService accesses a repository's releases. The listing includes
// drafts and prereleases; callers filter.
type ReleasesService struct {
	endpoint
}

type ReleaseListOpts struct {
	ListOptions
}

func (s *ReleasesService) List(opts *ReleaseListOpts) *Pages[Release] {
	if opts == nil {
		opts = &ReleaseListOpts{}
	}
	return listPages[Release](s.client, s.path("/releases"), opts.values(nil))
}

func (s *ReleasesService) Get(ctx context.Context, id int64) (*Release, error) {
	var release Release
	if err := s.client.rest(ctx, http.MethodGet, s.path("/releases/%d", id), nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// Latest returns the most recent non-draft, non-prerelease release.
func (s *ReleasesService) Latest(ctx context.Context) (*Release, error) {
	var release Release
	if err := s.client.rest(ctx, http.MethodGet, s.path("/releases/latest"), nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (s *ReleasesService) ByTag(ctx context.Context, tag string) (*Release, error) {
	var release Release
	if err := s.client.rest(ctx, http.MethodGet, s.path("/releases/tags/%s", tag), nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

type ReleaseCreateOpts struct {
	TagName         string `json:"tag_name"`
	TargetCommitish string `json:"target_commitish,omitempty"`
	Name            string `json:"name,omitempty"`
	Body            string `json:"body,omitempty"`
	Draft           *bool  `json:"draft,omitempty"`
	Prerelease      *bool  `json:"prerelease,omitempty"`
}

func (s *ReleasesService) Create(ctx context.Context, opts ReleaseCreateOpts) (*Release, error) {
	if err := missingFields("releases.create", map[string]string{
		"tag_name": opts.TagName,
	}); err != nil {
		return nil, err
	}
	var release Release
	if err := s.client.rest(ctx, http.MethodPost, s.path("/releases"), opts, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

type ReleaseEditOpts struct {
	TagName         string `json:"tag_name,omitempty"`
	TargetCommitish string `json:"target_commitish,omitempty"`
	Name            string `json:"name,omitempty"`
	Body            string `json:"body,omitempty"`
	Draft           *bool  `json:"draft,omitempty"`
	Prerelease      *bool  `json:"prerelease,omitempty"`
}

func (s *ReleasesService) Edit(ctx context.Context, id int64, opts ReleaseEditOpts) (*Release, error) {
	var release Release
	if err := s.client.rest(ctx, http.MethodPatch, s.path("/releases/%d", id), opts, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (s *ReleasesService) Delete(ctx context.Context, id int64) error {
	return s.client.rest(ctx, http.MethodDelete, s.path("/releases/%d", id), nil, nil)
}
