package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apogee-eng/apogee/internal/packages"
)

func TestSummarizeUpdates(t *testing.T) {
	pkgs := []*packages.RepoStatus{
		{
			Name:    "chandra_aca",
			Owner:   "sot",
			LastTag: "4.32.0",
			Flight:  "4.30.0",
			ReleaseInfo: []packages.ReleaseSegment{
				{ReleaseTag: "", Merges: []packages.Merge{}},
				{ReleaseTag: "4.32.0", Merges: []packages.Merge{
					{PRNumber: 130, Branch: "fix-b", Title: "Fix B"},
					{PRNumber: 128, Branch: "fix-a", Title: "Fix A"},
				}},
				{ReleaseTag: "4.31.0", Merges: []packages.Merge{
					{PRNumber: 121, Branch: "feature", Title: "Feature"},
				}},
				{ReleaseTag: "4.30.0", Merges: []packages.Merge{
					{PRNumber: 110, Branch: "old", Title: "Old"},
				}},
			},
		},
		{
			Name:    "ska_sun",
			Owner:   "sot",
			LastTag: "3.14.0",
			Flight:  "3.14.0",
			ReleaseInfo: []packages.ReleaseSegment{
				{ReleaseTag: ""},
				{ReleaseTag: "3.14.0"},
			},
		},
		{
			Name:        "annie",
			Owner:       "acisops",
			LastTag:     "",
			Flight:      "0.9.0",
			ReleaseInfo: []packages.ReleaseSegment{{ReleaseTag: ""}},
		},
	}

	updates := summarizeUpdates(pkgs, "flight")
	require.Len(t, updates, 1)
	u := updates[0]
	require.Equal(t, "chandra_aca", u.Name)
	require.Equal(t, "sot", u.Owner)
	require.Equal(t, "4.30.0", u.Current)
	require.Equal(t, "4.32.0", u.Latest)
	require.Equal(t, []string{"4.30.0", "4.31.0", "4.32.0"}, u.Versions)
	// Oldest merge first, ready to read top to bottom.
	require.Equal(t, []packages.Merge{
		{PRNumber: 121, Branch: "feature", Title: "Feature"},
		{PRNumber: 128, Branch: "fix-a", Title: "Fix A"},
		{PRNumber: 130, Branch: "fix-b", Title: "Fix B"},
	}, u.Merges)
}

func TestSummarizeUpdatesShippedVersionUnknown(t *testing.T) {
	// The shipped version is not in the kept history: everything since the
	// oldest kept release is reported.
	pkgs := []*packages.RepoStatus{
		{
			Name:    "maude",
			Owner:   "sot",
			LastTag: "1.1.0",
			Matlab:  "0.9.0",
			ReleaseInfo: []packages.ReleaseSegment{
				{ReleaseTag: ""},
				{ReleaseTag: "1.1.0", Merges: []packages.Merge{
					{PRNumber: 12, Branch: "newer", Title: "Newer"},
				}},
				{ReleaseTag: "1.0.0", Merges: []packages.Merge{
					{PRNumber: 5, Branch: "older", Title: "Older"},
				}},
			},
		},
	}

	updates := summarizeUpdates(pkgs, "matlab")
	require.Len(t, updates, 1)
	u := updates[0]
	require.Equal(t, "0.9.0", u.Current)
	require.Equal(t, []string{"0.9.0", "1.0.0", "1.1.0"}, u.Versions)
	require.Equal(t, []packages.Merge{
		{PRNumber: 5, Branch: "older", Title: "Older"},
		{PRNumber: 12, Branch: "newer", Title: "Newer"},
	}, u.Merges)
}
