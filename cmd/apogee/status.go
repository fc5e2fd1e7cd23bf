package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/packages"
	"github.com/apogee-eng/apogee/internal/utils/colors"
	"github.com/apogee-eng/apogee/internal/utils/timeutils"
)

var statusFlags struct {
	Input  string
	Behind bool
}

// staleSnapshot is how old a snapshot may get before the status display
// suggests refreshing it.
const staleSnapshot = 24 * time.Hour

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the status of every package",
	Long: `Show the status of every package: its latest release, the versions
shipped in the conda meta-packages, and the work pending release.

The snapshot document is read from disk; run "apogee info" to refresh it.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(statusFlags.Input)
		if err != nil {
			return err
		}
		taken := snap.Time
		if taken.IsZero() {
			// Older snapshots did not record their time; the user state does.
			if err := config.LoadUserState(); err == nil {
				taken = config.UserState.LastSnapshot
			}
		}
		if !taken.IsZero() && time.Since(taken) > staleSnapshot {
			_, _ = fmt.Fprint(os.Stderr, colors.Warning(
				"The snapshot was taken ", humanize.Time(taken),
				"; run \"apogee info --update\" to refresh it.", "\n",
			))
		}

		pkgs := append([]*packages.RepoStatus{}, snap.Packages...)
		sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
		if statusFlags.Behind {
			n := 0
			for _, p := range pkgs {
				if behindChannel(p) {
					pkgs[n] = p
					n++
				}
			}
			pkgs = pkgs[:n]
		}

		ss := []string{renderStatusHeader(snap, taken, len(pkgs))}
		for _, p := range pkgs {
			ss = append(ss, renderPackageStatus(statusStyles, p))
		}
		ret := lipgloss.NewStyle().MarginTop(1).MarginBottom(1).Render(
			lipgloss.JoinVertical(0, ss...),
		) + "\n"
		fmt.Print(ret)
		return nil
	},
}

type packageStatusStyles struct {
	Name    lipgloss.Style
	Version lipgloss.Style
	Shipped lipgloss.Style
	Behind  lipgloss.Style
}

var statusStyles = packageStatusStyles{
	Name:    lipgloss.NewStyle().Bold(true).Foreground(colors.Green600),
	Version: lipgloss.NewStyle().Bold(true).Foreground(colors.Cyan600),
	Shipped: lipgloss.NewStyle().Foreground(colors.Green600),
	Behind:  lipgloss.NewStyle().Foreground(colors.Amber500),
}

func renderStatusHeader(snap *packages.Snapshot, taken time.Time, count int) string {
	sb := strings.Builder{}
	sb.WriteString(colors.Bold(fmt.Sprintf("Status of %d package(s)", count)))
	if !taken.IsZero() {
		sb.WriteString(colors.Faint(" (as of " + timeutils.FormatLocal(taken) + ")"))
	}
	var meta []string
	if snap.Flight != "" {
		meta = append(meta, "ska3-flight "+snap.Flight)
	}
	if snap.Matlab != "" {
		meta = append(meta, "ska3-matlab "+snap.Matlab)
	}
	if len(meta) > 0 {
		sb.WriteString("\n" + colors.Faint(strings.Join(meta, ", ")))
	}
	return sb.String()
}

func renderPackageStatus(styles packageStatusStyles, p *packages.RepoStatus) string {
	sb := strings.Builder{}
	sb.WriteString(styles.Name.Render(p.Name))
	if p.LastTag != "" {
		sb.WriteString(" " + styles.Version.Render(p.LastTag))
		if p.LastTagDate != nil {
			sb.WriteString(" " + colors.Faint("(released "+humanize.Time(*p.LastTagDate)+")"))
		}
	} else {
		sb.WriteString(" " + colors.Faint("(never released)"))
	}

	var shipped []string
	for _, channel := range []struct{ name, version string }{
		{"flight", p.Flight},
		{"matlab", p.Matlab},
	} {
		if channel.version == "" {
			continue
		}
		entry := channel.name + " " + channel.version
		if channel.version == p.LastTag {
			shipped = append(shipped, styles.Shipped.Render(entry))
		} else {
			shipped = append(shipped, styles.Behind.Render(entry))
		}
	}
	if p.MasterVersion != "" {
		shipped = append(shipped, colors.Faint("masters "+p.MasterVersion))
	}
	if len(shipped) > 0 {
		sb.WriteString("\n  " + strings.Join(shipped, "  "))
	}

	var work []string
	if p.MergeCount > 0 {
		work = append(work, fmt.Sprintf("%d merge(s) since the last release", p.MergeCount))
	}
	if p.PullRequestCount > 0 {
		work = append(work, fmt.Sprintf("%d open pull request(s)", p.PullRequestCount))
	}
	if len(work) > 0 {
		sb.WriteString("\n  " + colors.Faint(strings.Join(work, ", ")))
	}
	return sb.String()
}

// behindChannel reports whether either meta-package ships an older version of
// the package than its latest release.
func behindChannel(p *packages.RepoStatus) bool {
	return (p.Flight != "" && p.Flight != p.LastTag) ||
		(p.Matlab != "" && p.Matlab != p.LastTag)
}

func init() {
	statusCmd.Flags().StringVarP(
		&statusFlags.Input, "input", "i", "repository_info.json",
		"snapshot document to read",
	)
	statusCmd.Flags().BoolVar(
		&statusFlags.Behind, "behind", false,
		"only show packages whose shipped version lags the latest release",
	)
}
