// Package packages assembles the status of every package in the project:
// repository activity, release history segmented by release, open pull
// requests, workflows, and the versions shipped in the conda meta-packages.
package packages

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/apogee-eng/apogee/internal/conda"
	"github.com/apogee-eng/apogee/internal/gh"
)

// Merge describes one merged pull request found in the commit history.
type Merge struct {
	PRNumber int    `json:"pr_number"`
	Branch   string `json:"branch"`
	Title    string `json:"title"`
}

// Commit is one commit of a release segment.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// ReleaseSegment is a slice of the default-branch history: the commits and
// merges that went into one release. The first segment is always the
// unreleased work since the latest release (empty tag).
type ReleaseSegment struct {
	ReleaseTag     string     `json:"release_tag"`
	ReleaseTagDate *time.Time `json:"release_tag_date"`
	Commits        []Commit   `json:"commits,omitempty"`
	Merges         []Merge    `json:"merges"`
}

// PullRequestSummary is one open pull request.
type PullRequestSummary struct {
	Number         int        `json:"number"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	CommitCount    int        `json:"n_commits"`
	LastCommitDate *time.Time `json:"last_commit_date"`
}

// Workflow is a GitHub Actions workflow with its status badge.
type Workflow struct {
	Name     string `json:"name"`
	BadgeURL string `json:"badge_url"`
}

// RepoStatus is the assembled status document for one repository.
type RepoStatus struct {
	Owner            string               `json:"owner"`
	Name             string               `json:"name"`
	PushedAt         time.Time            `json:"pushed_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	LastTag          string               `json:"last_tag"`
	LastTagDate      *time.Time           `json:"last_tag_date"`
	CommitCount      int                  `json:"commits"`
	MergeCount       int                  `json:"merges"`
	MergeInfo        []Merge              `json:"merge_info"`
	ReleaseInfo      []ReleaseSegment     `json:"release_info"`
	OpenIssues       int                  `json:"issues"`
	PullRequestCount int                  `json:"n_pull_requests"`
	BranchCount      int                  `json:"branches"`
	PullRequests     []PullRequestSummary `json:"pull_requests"`
	Workflows        []Workflow           `json:"workflows"`
	// MasterVersion is the newest version on the masters conda channel
	// ("" if the package is not there).
	MasterVersion string `json:"master_version"`
	// Flight and Matlab are the versions pinned by the ska3-flight and
	// ska3-matlab meta-packages ("" if not shipped in them).
	Flight string `json:"flight"`
	Matlab string `json:"matlab"`
}

// Since selects how far back the release history is kept.
type Since struct {
	// Releases keeps the unreleased segment plus at most this many released
	// segments. Negative keeps everything.
	Releases int
	// Tag cuts the history just before the segment released as Tag
	// (exclusive). When set it overrides Releases.
	Tag string
}

// DefaultSince keeps the last seven releases.
var DefaultSince = Since{Releases: 7}

// ParseSince reads a --since flag value: a number of releases, or a release
// tag.
func ParseSince(s string) Since {
	if s == "" {
		return DefaultSince
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Since{Releases: n}
	}
	return Since{Tag: s}
}

func (s Since) apply(segments []ReleaseSegment) ([]ReleaseSegment, error) {
	if s.Tag != "" {
		for i, segment := range segments {
			if segment.ReleaseTag == s.Tag {
				return segments[:i], nil
			}
		}
		tags := make([]string, 0, len(segments))
		for _, segment := range segments[1:] {
			tags = append(tags, segment.ReleaseTag)
		}
		return nil, errors.Errorf(
			"%q is not a known release (releases: %s)", s.Tag, strings.Join(tags, ", "),
		)
	}
	if s.Releases >= 0 && len(segments) > s.Releases+1 {
		return segments[:s.Releases+1], nil
	}
	return segments, nil
}

// StatusOpts controls how a RepoStatus is assembled.
type StatusOpts struct {
	Since Since
	// UsePRTitles substitutes each merge commit's subject with the pull
	// request's current title, so titles fixed up after the merge show up in
	// release notes.
	UsePRTitles bool
	// IncludeCommits keeps the per-segment commit lists.
	IncludeCommits bool
	// IncludeUnreleasedCommits reports commit and merge counts even for
	// repositories that have never been released.
	IncludeUnreleasedCommits bool
}

// DefaultStatusOpts mirrors what the status dashboard expects.
var DefaultStatusOpts = StatusOpts{Since: DefaultSince, UsePRTitles: true}

// mergeSubject matches the subject and body of a standard GitHub merge
// commit.
var mergeSubject = regexp.MustCompile(`^Merge pull request #(\d+) from (\S+)\n\n(.+)`)

// ParseMerge extracts the pull request reference from a merge commit
// message.
func ParseMerge(message string) (Merge, bool) {
	m := mergeSubject.FindStringSubmatch(message)
	if m == nil {
		return Merge{}, false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return Merge{}, false
	}
	return Merge{PRNumber: number, Branch: m[2], Title: m[3]}, true
}

// segmentHistory splits the commit history (newest first) into release
// segments. A new segment starts at each commit a release tag points to; the
// leading segment collects unreleased work.
func segmentHistory(summary *gh.RepoSummary, prTitles map[int]string) []ReleaseSegment {
	releases := map[string]gh.SummaryRelease{}
	for _, release := range summary.Releases {
		releases[release.CommitSHA] = release
	}

	segments := []ReleaseSegment{{Merges: []Merge{}}}
	for _, commit := range summary.Commits {
		if release, ok := releases[commit.SHA]; ok {
			published := release.PublishedAt
			segments = append(segments, ReleaseSegment{
				ReleaseTag:     release.TagName,
				ReleaseTagDate: &published,
				Merges:         []Merge{},
			})
		}
		last := &segments[len(segments)-1]
		last.Commits = append(last.Commits, Commit{SHA: commit.SHA, Message: commit.Message})
		if merge, ok := ParseMerge(commit.Message); ok {
			if title, ok := prTitles[merge.PRNumber]; ok {
				merge.Title = title
			}
			last.Merges = append(last.Merges, merge)
		}
	}
	return segments
}

// buildStatus assembles the status document from the repository summary.
func buildStatus(summary *gh.RepoSummary, workflows []Workflow, opts StatusOpts) (*RepoStatus, error) {
	var prTitles map[int]string
	if opts.UsePRTitles {
		prTitles = make(map[int]string, len(summary.PullRequests))
		for _, pr := range summary.PullRequests {
			prTitles[pr.Number] = strings.TrimSpace(pr.Title)
		}
	}

	segments, err := opts.Since.apply(segmentHistory(summary, prTitles))
	if err != nil {
		return nil, err
	}

	status := &RepoStatus{
		Owner:        summary.Owner,
		Name:         summary.Name,
		PushedAt:     summary.PushedAt,
		UpdatedAt:    summary.UpdatedAt,
		ReleaseInfo:  segments,
		OpenIssues:   summary.OpenIssues,
		BranchCount:  summary.BranchCount,
		PullRequests: []PullRequestSummary{},
		Workflows:    workflows,
		CommitCount:  len(segments[0].Commits),
		MergeCount:   len(segments[0].Merges),
		MergeInfo:    segments[0].Merges,
	}
	if len(segments) > 1 {
		status.LastTag = segments[1].ReleaseTag
		status.LastTagDate = segments[1].ReleaseTagDate
	}
	if !opts.IncludeUnreleasedCommits && len(segments) == 1 {
		// Never-released repositories would otherwise report their whole
		// history as pending work.
		status.CommitCount = 0
		status.MergeCount = 0
		status.MergeInfo = []Merge{}
	}
	if !opts.IncludeCommits {
		for i := range segments {
			segments[i].Commits = nil
		}
	}

	for _, pr := range summary.PullRequests {
		if pr.State != "OPEN" {
			continue
		}
		prSummary := PullRequestSummary{
			Number:      pr.Number,
			URL:         pr.URL,
			Title:       pr.Title,
			CommitCount: pr.CommitCount,
		}
		if !pr.LastCommitPush.IsZero() {
			pushed := pr.LastCommitPush
			prSummary.LastCommitDate = &pushed
		}
		status.PullRequests = append(status.PullRequests, prSummary)
	}
	sort.Slice(status.PullRequests, func(i, j int) bool {
		return status.PullRequests[i].Number > status.PullRequests[j].Number
	})
	status.PullRequestCount = len(status.PullRequests)

	return status, nil
}

// Conda lookups are package-level function variables so tests can stub the
// CLI away.
var (
	condaLatestVersion = conda.LatestVersion
	condaMetaPackage   = conda.MetaPackage
)

// Service assembles status documents using the GitHub API and the conda
// channels.
type Service struct {
	client *gh.Client
	// dataDir holds the definitions checkout and the document caches. Empty
	// disables both.
	dataDir string
}

// NewService returns a Service. dataDir is where the definitions repository
// is cloned and status documents are cached; empty disables caching.
func NewService(client *gh.Client, dataDir string) *Service {
	return &Service{client: client, dataDir: dataDir}
}

// RepoStatus assembles the status document for one repository, bypassing the
// cache.
func (s *Service) RepoStatus(ctx context.Context, owner, name string, opts StatusOpts) (*RepoStatus, error) {
	summary, err := s.client.RepoSummary(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	workflows, err := s.workflows(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	status, err := buildStatus(summary, workflows, opts)
	if err != nil {
		return nil, err
	}

	// The masters channel holds builds of unreleased package versions; its
	// newest version tells whether a release is already staged.
	version, err := condaLatestVersion(ctx, strings.ToLower(name), "masters")
	if err != nil {
		logrus.WithError(err).WithField("package", name).Warn("failed to look up masters version")
	}
	status.MasterVersion = version
	return status, nil
}

func (s *Service) workflows(ctx context.Context, owner, name string) ([]Workflow, error) {
	all, err := s.client.Repository(owner, name).Workflows.List(nil).All(ctx)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to list workflows for %s/%s", owner, name)
	}
	workflows := make([]Workflow, len(all))
	for i, w := range all {
		workflows[i] = Workflow{Name: w.Name, BadgeURL: w.BadgeURL}
	}
	return workflows, nil
}
