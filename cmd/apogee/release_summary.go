package main

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/packages"
)

var releaseSummaryFlags struct {
	Channel string
	Input   string
}

var releaseSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "summarize the releases a meta-package update would pull in",
	Long: `Summarize the releases a meta-package update would pull in.

For every package whose shipped version lags its latest release, the versions
in between and the pull requests they merged are listed as markdown, ready
for a "Package update" issue.

The snapshot document is read from disk; run "apogee info" to refresh it.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel := releaseSummaryFlags.Channel
		if channel != "flight" && channel != "matlab" {
			return errors.Errorf("unknown channel %q (expected flight or matlab)", channel)
		}
		snap, err := readSnapshot(releaseSummaryFlags.Input)
		if err != nil {
			return err
		}
		pkgs := append([]*packages.RepoStatus{}, snap.Packages...)
		sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })

		checkShippedVersions(pkgs, channel)
		for _, u := range summarizeUpdates(pkgs, channel) {
			_, _ = fmt.Fprintf(os.Stdout, "**%s: %s -> %s** (all versions: %s)\n",
				u.Name, u.Current, u.Latest, strings.Join(u.Versions, " -> "))
			for _, m := range u.Merges {
				_, _ = fmt.Fprintf(os.Stdout, "  - [PR %d](https://github.com/%s/%s/pull/%d): %s\n",
					m.PRNumber, u.Owner, u.Name, m.PRNumber, m.Title)
			}
			_, _ = fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

// packageUpdate is one pending update: a package whose shipped version lags
// its latest release.
type packageUpdate struct {
	Name    string
	Owner   string
	Current string
	Latest  string
	// Versions is the upgrade path, from Current to Latest.
	Versions []string
	// Merges are the pull requests the upgrade would pull in, oldest first.
	Merges []packages.Merge
}

func shippedVersion(p *packages.RepoStatus, channel string) string {
	if channel == "matlab" {
		return p.Matlab
	}
	return p.Flight
}

func releaseTags(p *packages.RepoStatus) []string {
	tags := make([]string, len(p.ReleaseInfo))
	for i, segment := range p.ReleaseInfo {
		tags[i] = segment.ReleaseTag
	}
	return tags
}

// checkShippedVersions warns about packages whose shipped version does not
// appear in the release history, usually a sign of a stale snapshot.
func checkShippedVersions(pkgs []*packages.RepoStatus, channel string) {
	var notOK []string
	for _, p := range pkgs {
		current := shippedVersion(p, channel)
		if current == "" || p.LastTag == current {
			continue
		}
		if tags := releaseTags(p); !slices.Contains(tags, current) {
			notOK = append(notOK, fmt.Sprintf("%s: %s, [%s]", p.Name, current, strings.Join(tags, ", ")))
		}
	}
	if len(notOK) > 0 {
		logrus.Warn("Current package version is not in the snapshot:")
		for _, entry := range notOK {
			logrus.Warn(" - " + entry)
		}
	}
}

// summarizeUpdates collects the pending update of every package that lags
// behind, sorted by name.
func summarizeUpdates(pkgs []*packages.RepoStatus, channel string) []packageUpdate {
	var updates []packageUpdate
	for _, p := range pkgs {
		current := shippedVersion(p, channel)
		if current == "" || p.LastTag == current {
			continue
		}
		tags := releaseTags(p)
		if len(tags) == 1 && tags[0] == "" {
			logrus.Warnf("Package %s has no releases?", p.Name)
			continue
		}
		start := slices.Index(tags, p.LastTag)
		if start < 0 {
			logrus.Warnf("Package %s: release history does not include %s", p.Name, p.LastTag)
			continue
		}
		// The window runs from the latest release down to (but excluding) the
		// shipped version, newest first as the history is stored.
		window := tags[start:]
		if end := slices.Index(tags, current); end >= 0 {
			window = tags[start:end]
		}

		segments := make(map[string][]packages.Merge, len(p.ReleaseInfo))
		for _, segment := range p.ReleaseInfo {
			segments[segment.ReleaseTag] = segment.Merges
		}
		var merges []packages.Merge
		for _, tag := range window {
			merges = append(merges, segments[tag]...)
		}
		slices.Reverse(merges)

		versions := append([]string{current}, window...)
		slices.Reverse(versions[1:])

		updates = append(updates, packageUpdate{
			Name:     p.Name,
			Owner:    p.Owner,
			Current:  current,
			Latest:   p.LastTag,
			Versions: versions,
			Merges:   merges,
		})
	}
	sort.Slice(updates, func(i, j int) bool {
		return strings.ToLower(updates[i].Name) < strings.ToLower(updates[j].Name)
	})
	return updates
}

func init() {
	releaseSummaryCmd.Flags().StringVarP(
		&releaseSummaryFlags.Channel, "channel", "c", "flight",
		"meta-package channel to compare against (flight or matlab)",
	)
	releaseSummaryCmd.Flags().StringVarP(
		&releaseSummaryFlags.Input, "input", "i", "repository_info.json",
		"snapshot document to read",
	)
}
