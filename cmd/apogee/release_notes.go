package main

import (
	"context"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/packages"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var releaseNotesFlags struct {
	Repo   string
	SHA    string
	Branch string
}

var releaseNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "amend a release body with the merges it includes",
	Long: `Amend a release body with the merges it includes.

The release is identified by the commit it was cut from. The commits between
it and the previous release are scanned for pull request merges, and the
release body gains an "Includes the following merges" section listing them.
If there is no previous release the whole history is scanned. Releases are
assumed to be cut from a single branch.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := getRepository(releaseNotesFlags.Repo)
		if err != nil {
			return err
		}
		ctx := context.Background()

		releases, err := repo.Releases.List(nil).All(ctx)
		if err != nil {
			return err
		}
		// Newest first, as GitHub lists them.
		shas := make([]string, len(releases))
		for i, release := range releases {
			shas[i], err = resolveTagCommit(ctx, repo, release.TagName)
			if err != nil {
				return err
			}
		}
		current := -1
		for i, sha := range shas {
			if sha == releaseNotesFlags.SHA {
				current = i
			}
		}
		if current < 0 {
			return errors.Errorf("no release was cut from commit %s", releaseNotesFlags.SHA)
		}
		release := releases[current]

		opts := gh.CommitListOpts{SHA: releaseNotesFlags.Branch}
		head, err := repo.Commits.Get(ctx, shas[current])
		if err != nil {
			return err
		}
		opts.Until = head.Commit.Author.Date
		if current+1 < len(releases) {
			prev, err := repo.Commits.Get(ctx, shas[current+1])
			if err != nil {
				return err
			}
			opts.Since = prev.Commit.Author.Date
		}
		commits, err := repo.Commits.List(&opts).All(ctx)
		if err != nil {
			return err
		}
		if len(commits) > 0 {
			// The oldest commit in the window belongs to the previous release.
			commits = commits[:len(commits)-1]
		}

		var merges []string
		for _, commit := range commits {
			if merge, ok := packages.ParseMerge(commit.Commit.Message); ok {
				merges = append(merges, fmt.Sprintf("PR #%d: %s", merge.PRNumber, merge.Title))
			}
		}
		if len(merges) == 0 {
			_, _ = fmt.Fprint(os.Stderr, colors.Faint(
				"No pull request merges found; release left unchanged.", "\n",
			))
			return nil
		}

		body := release.Body
		if body != "" {
			body += "\n\n"
		}
		body += "Includes the following merges:\n"
		for _, merge := range merges {
			body += "- " + merge + "\n"
		}
		if _, err := repo.Releases.Edit(ctx, release.ID, gh.ReleaseEditOpts{Body: body}); err != nil {
			return errors.WrapIff(err, "failed to edit release %q", release.Name)
		}
		_, _ = fmt.Fprint(os.Stderr,
			"Updated release ", colors.UserInput(release.Name),
			" with ", colors.UserInput(len(merges)), " merge(s)", "\n",
		)
		return nil
	},
}

// resolveTagCommit resolves a tag name to the commit it marks, following
// annotated tag objects (which may nest) until a commit is reached.
func resolveTagCommit(ctx context.Context, repo *gh.Repository, name string) (string, error) {
	ref, err := repo.Tags.Ref(ctx, name)
	if err != nil {
		return "", err
	}
	object := ref.Object
	for object.Type == "tag" {
		tag, err := repo.Tags.Get(ctx, object.SHA)
		if err != nil {
			return "", err
		}
		object = tag.Object
	}
	return object.SHA, nil
}

func init() {
	releaseNotesCmd.Flags().StringVar(
		&releaseNotesFlags.Repo, "repo", "",
		"repository the release belongs to (defaults to the origin of the current checkout)",
	)
	releaseNotesCmd.Flags().StringVar(
		&releaseNotesFlags.SHA, "sha", "",
		"commit the release was cut from",
	)
	releaseNotesCmd.Flags().StringVar(
		&releaseNotesFlags.Branch, "branch", "master",
		"branch the releases are cut from",
	)
	_ = releaseNotesCmd.MarkFlagRequired("sha")
}
