package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/gitexec"
	"github.com/apogee-eng/apogee/internal/manifest"
	"github.com/apogee-eng/apogee/internal/utils/colors"
	"github.com/apogee-eng/apogee/internal/utils/errutils"
	"github.com/apogee-eng/apogee/internal/utils/sliceutils"
	"github.com/apogee-eng/apogee/internal/utils/templateutils"
)

var releaseCheckFlags struct {
	Repo    string
	Version string
	Path    string
	NoCheck bool
}

// releaseTagPattern matches the PEP-440 public version scheme the
// definitions repository tags releases with: a release segment with an
// optional epoch, an optional pre-release segment and an optional local
// label (e.g. 2024.10rc1+flight).
var releaseTagPattern = regexp.MustCompile(
	`^(?P<final>(?:[0-9]+!)?[0-9]+(?:\.[0-9]+(?:\.[0-9]+)?)?)` +
		`(?P<candidate>(?:a|b|rc)[0-9]+)?` +
		`(?:\+(?P<label>[a-zA-Z]+))?$`,
)

// releaseTag is the broken-down form of a release tag name.
type releaseTag struct {
	// Final is the release segment, i.e. the version once all candidates
	// pass. Release branches are named after it.
	Final string
	// Candidate is the pre-release segment (a1, b2, rc3), empty for finals.
	Candidate string
	// Label is the local version label (the part after +), if any.
	Label string
}

func parseReleaseTag(name string) (releaseTag, bool) {
	m := releaseTagPattern.FindStringSubmatch(name)
	if m == nil {
		return releaseTag{}, false
	}
	return releaseTag{
		Final:     m[releaseTagPattern.SubexpIndex("final")],
		Candidate: m[releaseTagPattern.SubexpIndex("candidate")],
		Label:     m[releaseTagPattern.SubexpIndex("label")],
	}, true
}

var stepSummaryTemplate = template.Must(template.New("stepSummary").Parse(`
# Release {{ .TagName }}

## Packages to build:

{{ range .Packages -}}
- {{ . }}
{{ end }}
## Arguments:

- ` + "`prerelease`" + `: {{ .Prerelease }}
- ` + "`overwrite_flag`" + `: {{ .OverwriteFlag }}
`))

var releaseCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "validate a release of the definitions repository",
	Long: `Validate a release of the definitions repository and list the
packages it builds.

The target version (the version once all candidates pass) is taken to be the
name of the branch the release was cut from. Every ska3-* package definition
whose version equals the target version is scheduled for building.

The following must hold for the release to be valid:

* the tag follows the PEP-440 version format,
* the tag and a release for it exist,
* the release branch is named <target>-branch or <target>+<label>
  (or master, for final releases),
* there is a pull request for the release branch titled <target>,
* candidate and labelled tags belong to prereleases,
* GITHUB_SHA, when set, is the tagged commit; otherwise the local checkout
  must be on the release branch.

When running under GitHub Actions, the results are appended to the step
summary and the prerelease, packages and overwrite_flag variables are
written to GITHUB_OUTPUT.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Versions arrive as git refs like refs/tags/2024.10 in CI.
		tagName := strings.Trim(releaseCheckFlags.Version, "/")
		if i := strings.LastIndex(tagName, "/"); i >= 0 {
			tagName = tagName[i+1:]
		}
		version, ok := parseReleaseTag(tagName)
		if !ok {
			return errors.Errorf(
				"tag name %q does not follow the PEP-440 version format "+
					"(https://www.python.org/dev/peps/pep-0440)", tagName,
			)
		}

		slug := releaseCheckFlags.Repo
		if slug == "" {
			slug = config.Apogee.Definitions.Repo
		}
		repo, err := getRepository(slug)
		if err != nil {
			return err
		}
		ctx := context.Background()
		_, _ = fmt.Fprint(os.Stderr, colors.Faint("Sanity check for release ", tagName, "\n"))

		release, err := repo.Releases.ByTag(ctx, tagName)
		if _, notFound := errutils.As[*gh.NotFoundError](err); err != nil && !notFound {
			return err
		}
		tagSHA, err := resolveTagCommit(ctx, repo, tagName)
		if _, notFound := errutils.As[*gh.NotFoundError](err); err != nil && !notFound {
			return err
		}
		prerelease := release != nil && release.Prerelease

		allowed := []string{version.Final + "-branch"}
		if version.Label != "" {
			allowed = append(allowed, version.Final+"+"+version.Label)
		}
		if !prerelease {
			allowed = append(allowed, "master")
		}

		branchName := ""
		if !releaseCheckFlags.NoCheck {
			var fail []string
			if release == nil {
				fail = append(fail, fmt.Sprintf("Release %s does not exist", tagName))
			}
			if tagSHA == "" {
				fail = append(fail, fmt.Sprintf("Tag %s does not exist", tagName))
			}
			if len(fail) == 0 {
				branchName = release.TargetCommitish
				state := "all"
				if prerelease {
					state = "open"
				}
				head := repo.Owner + ":" + version.Final + "-branch"
				prs, err := repo.PullRequests.List(&gh.PullRequestListOpts{
					State: state,
					Head:  head,
				}).All(ctx)
				if err != nil {
					return err
				}
				titled := 0
				for _, pr := range prs {
					if pr.Title == version.Final {
						titled++
					}
				}
				if !sliceutils.Contains(allowed, branchName) {
					fail = append(fail, fmt.Sprintf(
						"Invalid branch name %q for release %q. "+
							"Allowed branch names for this tag are %s",
						branchName, tagName, strings.Join(allowed, ", "),
					))
				}
				if titled == 0 {
					fail = append(fail, fmt.Sprintf(
						"There is no pull request titled %s from %s into master",
						version.Final, head,
					))
				}
				if version.Candidate != "" && !prerelease {
					fail = append(fail, fmt.Sprintf(
						"Tag %s is marked as a candidate, but the release is not a prerelease",
						tagName,
					))
				}
				if version.Label != "" && !prerelease {
					fail = append(fail, fmt.Sprintf(
						"Tag %s has label %s, but the release is not a prerelease",
						tagName, version.Label,
					))
				}
			}
			// Workflows triggered by the release run on the tagged commit;
			// anywhere else the local checkout stands in for the branch.
			if sha, ok := os.LookupEnv("GITHUB_SHA"); ok {
				if tagSHA != "" && sha != tagSHA {
					fail = append(fail, fmt.Sprintf(
						"Tag %s commit differs from GITHUB_SHA: %s != %s",
						tagName, tagSHA, sha,
					))
				}
			} else {
				branch, err := gitexec.Open(releaseCheckFlags.Path).CurrentBranch()
				if err != nil {
					return errors.WrapIff(err, "%q is not a git checkout", releaseCheckFlags.Path)
				}
				if branch != branchName {
					fail = append(fail, fmt.Sprintf(
						"Current branch differs from the release branch (%q != %q)",
						branch, branchName,
					))
				}
			}
			if len(fail) > 0 {
				summary := "## Errors\n"
				for _, f := range fail {
					summary += "- " + f + "\n"
					_, _ = fmt.Fprint(os.Stderr, colors.Failure("- ", f), "\n")
				}
				if err := appendStepSummary(summary); err != nil {
					return err
				}
				return errors.New("release sanity check failed")
			}
		}
		_, _ = fmt.Fprint(os.Stderr, colors.Faint("Target version ", version.Final, "\n"))

		// Whichever ska3-* definition declares the target version is built as
		// part of this release.
		paths, err := filepath.Glob(filepath.Join(
			releaseCheckFlags.Path, "pkg_defs", "ska3-*", "meta.yaml",
		))
		if err != nil {
			return errors.Wrap(err, "failed to glob package definitions")
		}
		var pkgs []string
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.WrapIff(err, "failed to read %s", path)
			}
			recipe, err := manifest.DecodeRecipe(data)
			if err != nil {
				return errors.WrapIff(err, "%s", path)
			}
			if recipe.Package.Version == version.Final {
				pkgs = append(pkgs, recipe.Package.Name)
			}
		}
		if len(pkgs) == 0 {
			return errors.New("no packages to build; something must be wrong")
		}

		packagesStr := strings.Join(pkgs, " ")
		overwriteFlag := fmt.Sprintf(
			"--skare3-overwrite-version %s:%s", version.Final, tagName,
		)
		_, _ = fmt.Fprintf(os.Stderr, "prerelease: %t\n", prerelease)
		_, _ = fmt.Fprintf(os.Stderr, "packages: %s\n", packagesStr)
		_, _ = fmt.Fprintf(os.Stderr, "overwrite_flag: %s\n", overwriteFlag)

		if path, ok := os.LookupEnv("GITHUB_OUTPUT"); ok {
			err := appendFile(path, fmt.Sprintf(
				"prerelease=%t\npackages=%s\noverwrite_flag=%s\n",
				prerelease, packagesStr, overwriteFlag,
			))
			if err != nil {
				return err
			}
		}
		summary, err := templateutils.String(stepSummaryTemplate, struct {
			TagName       string
			Packages      []string
			Prerelease    bool
			OverwriteFlag string
		}{tagName, pkgs, prerelease, overwriteFlag})
		if err != nil {
			return err
		}
		return appendStepSummary(summary)
	},
}

// appendStepSummary appends markdown to the GitHub Actions step summary.
// Outside of Actions it does nothing.
func appendStepSummary(markdown string) error {
	path, ok := os.LookupEnv("GITHUB_STEP_SUMMARY")
	if !ok {
		return nil
	}
	return appendFile(path, markdown)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WrapIff(err, "failed to open %s", path)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return errors.WrapIff(err, "failed to write %s", path)
	}
	return f.Close()
}

func init() {
	releaseCheckCmd.Flags().StringVar(
		&releaseCheckFlags.Repo, "repo", "",
		"definitions repository (defaults to the configured one)",
	)
	releaseCheckCmd.Flags().StringVar(
		&releaseCheckFlags.Version, "version", "",
		"target version to build (may be a ref like refs/tags/2024.10)",
	)
	releaseCheckCmd.Flags().StringVar(
		&releaseCheckFlags.Path, "path", ".",
		"local checkout of the definitions repository",
	)
	releaseCheckCmd.Flags().BoolVar(
		&releaseCheckFlags.NoCheck, "no-check", false,
		"skip the CI sanity checks",
	)
	_ = releaseCheckCmd.MarkFlagRequired("version")
}
