package gh

import (
	"fmt"
	"net/url"
)

// Organization is a handle on an organization's API surface. Like
// Repository, constructing it performs no network traffic.
type Organization struct {
	Login string

	client *Client
}

func (c *Client) Organization(login string) *Organization {
	return &Organization{Login: login, client: c}
}

type OrgRepoListOpts struct {
	// Type is all, public, private, forks, sources or member (all when
	// empty).
	Type string
	ListOptions
}

func (o *OrgRepoListOpts) values() url.Values {
	q := url.Values{}
	if o.Type != "" {
		q.Set("type", o.Type)
	}
	return o.ListOptions.values(q)
}

// Repositories lists the organization's repositories.
func (o *Organization) Repositories(opts *OrgRepoListOpts) *Pages[RepoInfo] {
	if opts == nil {
		opts = &OrgRepoListOpts{}
	}
	return listPages[RepoInfo](o.client, fmt.Sprintf("/orgs/%s/repos", o.Login), opts.values())
}
