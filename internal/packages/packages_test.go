package packages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apogee-eng/apogee/internal/gh"
)

func TestParseMerge(t *testing.T) {
	for _, tt := range []struct {
		name    string
		message string
		merge   Merge
		ok      bool
	}{
		{
			name:    "standard merge commit",
			message: "Merge pull request #123 from sot/fix-dark-cal\n\nFix dark cal pixel scaling",
			merge:   Merge{PRNumber: 123, Branch: "sot/fix-dark-cal", Title: "Fix dark cal pixel scaling"},
			ok:      true,
		},
		{
			name:    "multi-line body keeps the first line",
			message: "Merge pull request #7 from jgonzalez/new-dashboard\n\nNew dashboard\n\nWith extra details below",
			merge:   Merge{PRNumber: 7, Branch: "jgonzalez/new-dashboard", Title: "New dashboard"},
			ok:      true,
		},
		{
			name:    "branch merge is not a pull request",
			message: "Merge branch 'master' into fix-dark-cal",
		},
		{
			name:    "squash commits do not match",
			message: "Fix dark cal pixel scaling (#123)",
		},
		{
			name:    "missing body",
			message: "Merge pull request #123 from sot/fix-dark-cal",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			merge, ok := ParseMerge(tt.message)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.merge, merge)
		})
	}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// testSummary describes a repository with five commits (newest first),
// releases 1.1.0 (at c3) and 1.0.0 (at c5), one merge in the unreleased
// segment and one in the 1.1.0 segment.
func testSummary() *gh.RepoSummary {
	return &gh.RepoSummary{
		Owner:         "sot",
		Name:          "chandra_aca",
		DefaultBranch: "master",
		PushedAt:      date("2026-08-20"),
		UpdatedAt:     date("2026-08-21"),
		BranchCount:   3,
		OpenIssues:    2,
		Releases: []gh.SummaryRelease{
			{TagName: "1.1.0", PublishedAt: date("2026-06-01"), CommitSHA: "c3"},
			{TagName: "1.0.0", PublishedAt: date("2026-01-01"), CommitSHA: "c5"},
		},
		PullRequests: []gh.SummaryPullRequest{
			{Number: 11, Title: "WIP experiment", State: "OPEN", CommitCount: 1,
				URL: "https://example.com/pr/11", LastCommitPush: date("2026-08-19")},
			{Number: 10, Title: "Improve centroids (edited)", State: "MERGED", CommitCount: 4},
			{Number: 9, Title: "Old idea", State: "CLOSED", CommitCount: 2,
				URL: "https://example.com/pr/9"},
			{Number: 8, Title: "Add dark cal", State: "MERGED", CommitCount: 3},
		},
		Commits: []gh.SummaryCommit{
			{SHA: "c1", Message: "Merge pull request #10 from sot/centroids\n\nImprove centroids"},
			{SHA: "c2", Message: "tweak docs"},
			{SHA: "c3", Message: "Merge pull request #8 from sot/dark-cal\n\nAdd dark cal"},
			{SHA: "c4", Message: "fix tests"},
			{SHA: "c5", Message: "initial import"},
		},
	}
}

func TestSegmentHistory(t *testing.T) {
	segments := segmentHistory(testSummary(), nil)
	require.Len(t, segments, 3)

	require.Equal(t, "", segments[0].ReleaseTag)
	require.Nil(t, segments[0].ReleaseTagDate)
	require.Len(t, segments[0].Commits, 2, "c1 and c2 are unreleased")
	require.Equal(t, []Merge{
		{PRNumber: 10, Branch: "sot/centroids", Title: "Improve centroids"},
	}, segments[0].Merges)

	require.Equal(t, "1.1.0", segments[1].ReleaseTag)
	require.Len(t, segments[1].Commits, 2, "c3 and c4 went into 1.1.0")
	require.Equal(t, []Merge{
		{PRNumber: 8, Branch: "sot/dark-cal", Title: "Add dark cal"},
	}, segments[1].Merges)

	require.Equal(t, "1.0.0", segments[2].ReleaseTag)
	require.Len(t, segments[2].Commits, 1)
	require.Empty(t, segments[2].Merges)
}

func TestSegmentHistoryUsesPRTitles(t *testing.T) {
	titles := map[int]string{10: "Improve centroids (edited)"}
	segments := segmentHistory(testSummary(), titles)
	require.Equal(t, "Improve centroids (edited)", segments[0].Merges[0].Title)
	// No title known for #8: the commit subject stays.
	require.Equal(t, "Add dark cal", segments[1].Merges[0].Title)
}

func TestParseSince(t *testing.T) {
	require.Equal(t, DefaultSince, ParseSince(""))
	require.Equal(t, Since{Releases: 3}, ParseSince("3"))
	require.Equal(t, Since{Tag: "1.0.0"}, ParseSince("1.0.0"))
}

func TestSinceApply(t *testing.T) {
	segments := []ReleaseSegment{
		{ReleaseTag: ""},
		{ReleaseTag: "1.2.0"},
		{ReleaseTag: "1.1.0"},
		{ReleaseTag: "1.0.0"},
	}

	t.Run("count keeps that many releases", func(t *testing.T) {
		cut, err := Since{Releases: 2}.apply(segments)
		require.NoError(t, err)
		require.Len(t, cut, 3)
		require.Equal(t, "1.1.0", cut[2].ReleaseTag)
	})

	t.Run("count larger than history keeps everything", func(t *testing.T) {
		cut, err := Since{Releases: 10}.apply(segments)
		require.NoError(t, err)
		require.Len(t, cut, 4)
	})

	t.Run("negative keeps everything", func(t *testing.T) {
		cut, err := Since{Releases: -1}.apply(segments)
		require.NoError(t, err)
		require.Len(t, cut, 4)
	})

	t.Run("tag cuts before the tag", func(t *testing.T) {
		cut, err := Since{Tag: "1.1.0"}.apply(segments)
		require.NoError(t, err)
		require.Len(t, cut, 2)
		require.Equal(t, "1.2.0", cut[1].ReleaseTag)
	})

	t.Run("unknown tag lists the known ones", func(t *testing.T) {
		_, err := Since{Tag: "2.0.0"}.apply(segments)
		require.Error(t, err)
		require.Contains(t, err.Error(), "1.2.0, 1.1.0, 1.0.0")
	})
}

func TestBuildStatus(t *testing.T) {
	status, err := buildStatus(testSummary(), []Workflow{{Name: "CI", BadgeURL: "https://example.com/badge.svg"}}, DefaultStatusOpts)
	require.NoError(t, err)

	require.Equal(t, "sot", status.Owner)
	require.Equal(t, "chandra_aca", status.Name)
	require.Equal(t, 3, status.BranchCount)
	require.Equal(t, 2, status.OpenIssues)

	require.Equal(t, "1.1.0", status.LastTag)
	require.NotNil(t, status.LastTagDate)
	require.Equal(t, date("2026-06-01"), *status.LastTagDate)

	require.Equal(t, 2, status.CommitCount)
	require.Equal(t, 1, status.MergeCount)
	require.Equal(t, "Improve centroids (edited)", status.MergeInfo[0].Title,
		"merge titles pick up the edited pull request title")

	require.Len(t, status.ReleaseInfo, 3)
	require.Nil(t, status.ReleaseInfo[1].Commits, "commit lists are dropped by default")

	require.Equal(t, 1, status.PullRequestCount, "only open pull requests are reported")
	require.Equal(t, 11, status.PullRequests[0].Number)
	require.NotNil(t, status.PullRequests[0].LastCommitDate)

	require.Equal(t, "CI", status.Workflows[0].Name)
}

func TestBuildStatusIncludeCommits(t *testing.T) {
	opts := DefaultStatusOpts
	opts.IncludeCommits = true
	status, err := buildStatus(testSummary(), nil, opts)
	require.NoError(t, err)
	require.Len(t, status.ReleaseInfo[0].Commits, 2)
	require.Equal(t, "c1", status.ReleaseInfo[0].Commits[0].SHA)
}

func TestBuildStatusUnreleased(t *testing.T) {
	summary := testSummary()
	summary.Releases = nil

	status, err := buildStatus(summary, nil, DefaultStatusOpts)
	require.NoError(t, err)
	require.Zero(t, status.CommitCount)
	require.Zero(t, status.MergeCount)
	require.Empty(t, status.MergeInfo)
	require.Empty(t, status.LastTag)
	require.Nil(t, status.LastTagDate)

	opts := DefaultStatusOpts
	opts.IncludeUnreleasedCommits = true
	status, err = buildStatus(summary, nil, opts)
	require.NoError(t, err)
	require.Equal(t, 5, status.CommitCount)
	require.Equal(t, 2, status.MergeCount)
}

func TestBuildStatusSinceTag(t *testing.T) {
	opts := DefaultStatusOpts
	opts.Since = Since{Tag: "1.0.0"}
	status, err := buildStatus(testSummary(), nil, opts)
	require.NoError(t, err)
	require.Len(t, status.ReleaseInfo, 2, "history stops before 1.0.0")
	require.Equal(t, "1.1.0", status.LastTag)
}

func TestBuildStatusOpenPRsSortedByNumber(t *testing.T) {
	summary := testSummary()
	summary.PullRequests = append(summary.PullRequests, gh.SummaryPullRequest{
		Number: 13, Title: "Newer PR", State: "OPEN", CommitCount: 1,
	})

	status, err := buildStatus(summary, nil, DefaultStatusOpts)
	require.NoError(t, err)
	require.Equal(t, 2, status.PullRequestCount)
	require.Equal(t, 13, status.PullRequests[0].Number)
	require.Equal(t, 11, status.PullRequests[1].Number)
	require.Nil(t, status.PullRequests[0].LastCommitDate, "no pushed date reported as null")
}
