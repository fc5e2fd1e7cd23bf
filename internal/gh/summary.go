package gh

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/shurcooL/githubv4"
)

// RepoSummary is the consolidated repository state used by the package
// status pipeline: full default-branch history, releases resolved to commit
// SHAs, pull requests, and the open-issue/branch counts. It is fetched in
// one GraphQL round trip plus however many continuation pages the commit
// history and pull request listings need.
type RepoSummary struct {
	Owner         string
	Name          string
	DefaultBranch string
	PushedAt      time.Time
	UpdatedAt     time.Time
	BranchCount   int
	OpenIssues    int

	// Releases excludes drafts and prereleases. CommitSHA is the commit the
	// release tag ultimately points at.
	Releases []SummaryRelease
	// PullRequests holds every pull request (all states), newest first.
	PullRequests []SummaryPullRequest
	// Commits is the default-branch history, newest first.
	Commits []SummaryCommit
}

type SummaryRelease struct {
	Name        string
	TagName     string
	CreatedAt   time.Time
	PublishedAt time.Time
	URL         string
	CommitSHA   string
}

type SummaryPullRequest struct {
	Number         int
	Title          string
	URL            string
	BaseRef        string
	HeadRef        string
	State          string
	CommitCount    int
	LastCommitPush time.Time
}

type SummaryCommit struct {
	SHA     string
	Message string
}

// RepoActivity is the cheap staleness probe used by the snapshot cache.
type RepoActivity struct {
	PushedAt  time.Time
	UpdatedAt time.Time
}

const summaryPageSize = 100

// tagTarget resolves what a release tag points at. Annotated tags can point
// at further tags; three levels of nesting are followed, which covers every
// repository this has been run against.
type tagTarget struct {
	Typename string `graphql:"__typename"`
	Commit   struct {
		Oid string
	} `graphql:"... on Commit"`
	Tag struct {
		Oid    string
		Target struct {
			Typename string `graphql:"__typename"`
			Commit   struct {
				Oid string
			} `graphql:"... on Commit"`
			Tag struct {
				Oid    string
				Target struct {
					Typename string `graphql:"__typename"`
					Commit   struct {
						Oid string
					} `graphql:"... on Commit"`
				}
			} `graphql:"... on Tag"`
		}
	} `graphql:"... on Tag"`
}

func (t tagTarget) commitSHA() string {
	if t.Typename == "Commit" {
		return t.Commit.Oid
	}
	inner := t.Tag.Target
	if inner.Typename == "Commit" {
		return inner.Commit.Oid
	}
	return inner.Tag.Target.Commit.Oid
}

type summaryPageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     string
	EndCursor       string
}

type summaryReleaseNode struct {
	Name         string
	TagName      string
	CreatedAt    githubv4.DateTime
	PublishedAt  githubv4.DateTime
	IsPrerelease bool
	IsDraft      bool
	URL          string `graphql:"url"`
	Tag          struct {
		Target tagTarget
	}
}

type summaryPullRequestNode struct {
	Number      int
	Title       string
	URL         string `graphql:"url"`
	BaseRefName string
	HeadRefName string
	State       string
	Commits     struct {
		TotalCount int
		Nodes      []struct {
			Commit struct {
				PushedDate *githubv4.DateTime
				Message    string
			}
		}
	} `graphql:"commits(last: 1)"`
}

type summaryCommitNode struct {
	Oid     string
	Message string
}

// RepoSummary fetches the consolidated repository state. Both the commit
// history and the pull request listing are walked to completion: history
// forward from the newest commit, pull requests backward from the newest
// one (the way the API pages a "last: N" selection).
func (c *Client) RepoSummary(ctx context.Context, owner, name string) (*RepoSummary, error) {
	var query struct {
		Repository struct {
			Name  string
			Owner struct {
				Login string
			}
			PushedAt  githubv4.DateTime
			UpdatedAt githubv4.DateTime
			Refs      struct {
				TotalCount int
			} `graphql:"refs(refPrefix: \"refs/heads/\")"`
			Issues struct {
				TotalCount int
			} `graphql:"issues(states: OPEN)"`
			Releases struct {
				Nodes    []summaryReleaseNode
				PageInfo summaryPageInfo
			} `graphql:"releases(first: $pageSize)"`
			PullRequests struct {
				Nodes    []summaryPullRequestNode
				PageInfo summaryPageInfo
			} `graphql:"pullRequests(last: $pageSize)"`
			DefaultBranchRef struct {
				Name   string
				Target struct {
					Commit struct {
						History struct {
							Nodes    []summaryCommitNode
							PageInfo summaryPageInfo
						} `graphql:"history(first: $pageSize)"`
					} `graphql:"... on Commit"`
				}
			}
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"name":     githubv4.String(name),
		"pageSize": githubv4.Int(summaryPageSize),
	}
	if err := c.query(ctx, &query, variables); err != nil {
		return nil, errors.WrapIff(err, "failed to fetch repository summary for %s/%s", owner, name)
	}
	repo := query.Repository

	summary := &RepoSummary{
		Owner:         repo.Owner.Login,
		Name:          repo.Name,
		DefaultBranch: repo.DefaultBranchRef.Name,
		PushedAt:      repo.PushedAt.Time,
		UpdatedAt:     repo.UpdatedAt.Time,
		BranchCount:   repo.Refs.TotalCount,
		OpenIssues:    repo.Issues.TotalCount,
	}

	for _, node := range repo.Releases.Nodes {
		if node.IsDraft || node.IsPrerelease {
			continue
		}
		summary.Releases = append(summary.Releases, SummaryRelease{
			Name:        node.Name,
			TagName:     node.TagName,
			CreatedAt:   node.CreatedAt.Time,
			PublishedAt: node.PublishedAt.Time,
			URL:         node.URL,
			CommitSHA:   node.Tag.Target.commitSHA(),
		})
	}

	// A "last: N" window yields oldest-first within the page; flip each page
	// so the consolidated listing is newest first.
	appendPRs := func(nodes []summaryPullRequestNode) {
		for i := len(nodes) - 1; i >= 0; i-- {
			node := nodes[i]
			pr := SummaryPullRequest{
				Number:      node.Number,
				Title:       node.Title,
				URL:         node.URL,
				BaseRef:     node.BaseRefName,
				HeadRef:     node.HeadRefName,
				State:       node.State,
				CommitCount: node.Commits.TotalCount,
			}
			if n := len(node.Commits.Nodes); n > 0 {
				if pushed := node.Commits.Nodes[n-1].Commit.PushedDate; pushed != nil {
					pr.LastCommitPush = pushed.Time
				}
			}
			summary.PullRequests = append(summary.PullRequests, pr)
		}
	}
	appendPRs(repo.PullRequests.Nodes)
	prPage := repo.PullRequests.PageInfo
	for prPage.HasPreviousPage {
		nodes, info, err := c.pullRequestPage(ctx, owner, name, prPage.StartCursor)
		if err != nil {
			return nil, err
		}
		appendPRs(nodes)
		prPage = info
	}

	history := repo.DefaultBranchRef.Target.Commit.History
	for _, node := range history.Nodes {
		summary.Commits = append(summary.Commits, SummaryCommit{SHA: node.Oid, Message: node.Message})
	}
	histPage := history.PageInfo
	for histPage.HasNextPage {
		nodes, info, err := c.commitHistoryPage(ctx, owner, name, summary.DefaultBranch, histPage.EndCursor)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			summary.Commits = append(summary.Commits, SummaryCommit{SHA: node.Oid, Message: node.Message})
		}
		histPage = info
	}

	return summary, nil
}

func (c *Client) pullRequestPage(
	ctx context.Context,
	owner, name, cursor string,
) ([]summaryPullRequestNode, summaryPageInfo, error) {
	var query struct {
		Repository struct {
			PullRequests struct {
				Nodes    []summaryPullRequestNode
				PageInfo summaryPageInfo
			} `graphql:"pullRequests(last: $pageSize, before: $cursor)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"name":     githubv4.String(name),
		"cursor":   githubv4.String(cursor),
		"pageSize": githubv4.Int(summaryPageSize),
	}
	if err := c.query(ctx, &query, variables); err != nil {
		return nil, summaryPageInfo{}, errors.WrapIff(
			err, "failed to fetch pull request page for %s/%s", owner, name,
		)
	}
	return query.Repository.PullRequests.Nodes, query.Repository.PullRequests.PageInfo, nil
}

func (c *Client) commitHistoryPage(
	ctx context.Context,
	owner, name, branch, cursor string,
) ([]summaryCommitNode, summaryPageInfo, error) {
	var query struct {
		Repository struct {
			Ref struct {
				Target struct {
					Commit struct {
						History struct {
							Nodes    []summaryCommitNode
							PageInfo summaryPageInfo
						} `graphql:"history(first: $pageSize, after: $cursor)"`
					} `graphql:"... on Commit"`
				}
			} `graphql:"ref(qualifiedName: $ref)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]any{
		"owner":    githubv4.String(owner),
		"name":     githubv4.String(name),
		"ref":      githubv4.String(branch),
		"cursor":   githubv4.String(cursor),
		"pageSize": githubv4.Int(summaryPageSize),
	}
	if err := c.query(ctx, &query, variables); err != nil {
		return nil, summaryPageInfo{}, errors.WrapIff(
			err, "failed to fetch commit history page for %s/%s", owner, name,
		)
	}
	history := query.Repository.Ref.Target.Commit.History
	return history.Nodes, history.PageInfo, nil
}

// RepoActivity fetches just the repository's last-push and last-update
// times. The snapshot cache uses it to decide whether a cached summary is
// stale without paying for the full query.
func (c *Client) RepoActivity(ctx context.Context, owner, name string) (*RepoActivity, error) {
	var query struct {
		Repository struct {
			PushedAt  githubv4.DateTime
			UpdatedAt githubv4.DateTime
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]any{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := c.query(ctx, &query, variables); err != nil {
		return nil, errors.WrapIff(err, "failed to fetch repository activity for %s/%s", owner, name)
	}
	return &RepoActivity{
		PushedAt:  query.Repository.PushedAt.Time,
		UpdatedAt: query.Repository.UpdatedAt.Time,
	}, nil
}
