package gh

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Commit    struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type BranchesService struct {
	endpoint
}

type BranchListOpts struct {
	// Protected filters by protection status when non-nil.
	Protected *bool
	ListOptions
}

func (o *BranchListOpts) values() url.Values {
	q := url.Values{}
	if o.Protected != nil {
		q.Set("protected", strconv.FormatBool(*o.Protected))
	}
	return o.ListOptions.values(q)
}

func (s *BranchesService) List(opts *BranchListOpts) *Pages[Branch] {
	if opts == nil {
		opts = &BranchListOpts{}
	}
	return listPages[Branch](s.client, s.path("/branches"), opts.values())
}

func (s *BranchesService) Get(ctx context.Context, name string) (*Branch, error) {
	var branch Branch
	if err := s.client.rest(ctx, http.MethodGet, s.path("/branches/%s", name), nil, &branch); err != nil {
		return nil, err
	}
	return &branch, nil
}
