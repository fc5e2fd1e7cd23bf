package main

import (
	"context"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/utils/colors"
	"github.com/apogee-eng/apogee/internal/utils/sliceutils"
)

var prMergeFlags struct {
	Repo          string
	Number        int
	Head          string
	Base          string
	Method        string
	SHA           string
	CommitTitle   string
	CommitMessage string
}

var prMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "merge a pull request",
	Long: `Merge a pull request.

The pull request is selected with --number, or by filtering the open pull
requests with --head and/or --base; the filter must match exactly one. The
merge commit title and message default to values derived from the pull
request. When --sha is given, the merge only proceeds while the pull request
head is still at that commit.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var set []string
		cmd.Flags().Visit(func(f *pflag.Flag) { set = append(set, f.Name) })
		if sliceutils.Contains(set, "number") &&
			(sliceutils.Contains(set, "head") || sliceutils.Contains(set, "base")) {
			return errors.New("--number cannot be combined with --head or --base")
		}

		repo, err := getRepository(prMergeFlags.Repo)
		if err != nil {
			return err
		}
		ctx := context.Background()

		pr, err := repo.PullRequests.Find(ctx, gh.PullRequestFindOpts{
			Number: prMergeFlags.Number,
			Head:   prMergeFlags.Head,
			Base:   prMergeFlags.Base,
		})
		if err != nil {
			return err
		}
		if prMergeFlags.SHA != "" && pr.Head.SHA != prMergeFlags.SHA {
			return errors.Errorf(
				"head of pull request #%d is at %s, not the requested %s",
				pr.Number, pr.Head.SHA, prMergeFlags.SHA,
			)
		}

		opts := gh.MergeOpts{
			CommitTitle:   prMergeFlags.CommitTitle,
			CommitMessage: prMergeFlags.CommitMessage,
			Method:        prMergeFlags.Method,
			// Pin the merge to the head we just inspected.
			SHA: pr.Head.SHA,
		}
		if opts.CommitTitle == "" {
			opts.CommitTitle = fmt.Sprintf(
				"Merge Pull Request #%d from %s", pr.Number, pr.Head.Label,
			)
		}
		if opts.CommitMessage == "" {
			opts.CommitMessage = pr.Title
		}

		result, err := repo.PullRequests.Merge(ctx, pr.Number, opts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(os.Stderr,
			"Merged pull request ", colors.UserInput("#", pr.Number),
			" as ", colors.UserInput(result.SHA), "\n",
		)
		return nil
	},
}

func init() {
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.Repo, "repo", "",
		"repository the pull request belongs to (defaults to the origin of the current checkout)",
	)
	prMergeCmd.Flags().IntVarP(
		&prMergeFlags.Number, "number", "n", 0,
		"pull request number",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.Head, "head", "",
		"branch you are merging from",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.Base, "base", "",
		"branch you are merging into",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.Method, "method", "",
		"merge method to use (merge, squash or rebase)",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.SHA, "sha", "",
		"SHA that the pull request head must match to allow the merge",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.CommitTitle, "commit-title", "",
		"merge commit title (filled from the pull request when empty)",
	)
	prMergeCmd.Flags().StringVar(
		&prMergeFlags.CommitMessage, "commit-message", "",
		"merge commit message (filled from the pull request when empty)",
	)
}
