package gh

import (
	"context"
	"net/http"
	"time"
)

// Tag is an element of the lightweight tag listing.
type Tag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

// GitTag is an annotated tag object. Object is what the tag points at; for
// nested tags this is another tag, not a commit.
type GitTag struct {
	Tag     string `json:"tag"`
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Object  struct {
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"object"`
	Tagger struct {
		Name  string    `json:"name"`
		Email string    `json:"email"`
		Date  time.Time `json:"date"`
	} `json:"tagger"`
}

// Ref is a git reference (e.g. refs/tags/v1.2.3).
type Ref struct {
	Ref    string `json:"ref"`
	Object struct {
		Type string `json:"type"`
		SHA  string `json:"sha"`
	} `json:"object"`
}

type TagsService struct {
	endpoint
}

type TagListOpts struct {
	ListOptions
}

func (s *TagsService) List(opts *TagListOpts) *Pages[Tag] {
	if opts == nil {
		opts = &TagListOpts{}
	}
	return listPages[Tag](s.client, s.path("/tags"), opts.values(nil))
}

// Get fetches an annotated tag object by its SHA.
func (s *TagsService) Get(ctx context.Context, sha string) (*GitTag, error) {
	var tag GitTag
	if err := s.client.rest(ctx, http.MethodGet, s.path("/git/tags/%s", sha), nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// Ref resolves a tag name to its git reference. The referenced object is a
// tag object for annotated tags and a commit for lightweight ones.
func (s *TagsService) Ref(ctx context.Context, name string) (*Ref, error) {
	var ref Ref
	if err := s.client.rest(ctx, http.MethodGet, s.path("/git/ref/tags/%s", name), nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

type TagCreateOpts struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
	// Object is the SHA of the object being tagged, Type its type (usually
	// "commit").
	Object string     `json:"object"`
	Type   string     `json:"type"`
	Tagger *TagTagger `json:"tagger,omitempty"`
}

type TagTagger struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date,omitempty"`
}

// Create creates an annotated tag object. Note that this does not create the
// ref; the returned SHA can be used with the git refs endpoint to do so.
func (s *TagsService) Create(ctx context.Context, opts TagCreateOpts) (*GitTag, error) {
	if err := missingFields("tags.create", map[string]string{
		"tag":     opts.Tag,
		"message": opts.Message,
		"object":  opts.Object,
		"type":    opts.Type,
	}); err != nil {
		return nil, err
	}
	var tag GitTag
	if err := s.client.rest(ctx, http.MethodPost, s.path("/git/tags"), opts, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}
