package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/utils/browser"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var prCreateFlags struct {
	Repo  string
	Title string
	Head  string
	Base  string
	Body  string
	Draft bool
	Open  bool
}

var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a pull request",
	Long: `Create a pull request.

Examples:
  Create a PR with an empty body:
    $ apogee pr create --repo sot/chandra_aca --title "My PR" --head my-branch --base master

  Create a pull request, specifying the body of the PR from standard input.
    $ apogee pr create --repo sot/chandra_aca --title "Fancy feature" --head my-branch --base master --body - <<EOF
    > Implement my very fancy feature.
    > Can you please review it?
    > EOF
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := getRepository(prCreateFlags.Repo)
		if err != nil {
			return err
		}

		body, err := readBodyFlag(prCreateFlags.Body)
		if err != nil {
			return err
		}

		ctx := context.Background()
		opts := gh.PullRequestCreateOpts{
			Title: prCreateFlags.Title,
			Head:  prCreateFlags.Head,
			Base:  prCreateFlags.Base,
			Body:  body,
		}
		if cmd.Flags().Changed("draft") {
			opts.Draft = gh.Ptr(prCreateFlags.Draft)
		}
		pr, err := repo.PullRequests.Create(ctx, opts)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprint(os.Stderr,
			"Created pull request ", colors.UserInput("#", pr.Number),
			": ", colors.UserInput(pr.Title), "\n",
			"  ", colors.Faint(pr.HTMLURL), "\n",
		)
		if prCreateFlags.Open {
			if err := browser.Open(ctx, pr.HTMLURL); err != nil {
				_, _ = fmt.Fprint(os.Stderr,
					colors.Warning("  failed to open a browser: ", err.Error()), "\n",
				)
			}
		}
		return nil
	},
}

func init() {
	prCreateCmd.Flags().StringVar(
		&prCreateFlags.Repo, "repo", "",
		"repository to create the pull request in (defaults to the origin of the current checkout)",
	)
	prCreateCmd.Flags().StringVarP(
		&prCreateFlags.Title, "title", "t", "",
		"title of the pull request to create",
	)
	prCreateCmd.Flags().StringVar(
		&prCreateFlags.Head, "head", "",
		"branch you are merging from",
	)
	prCreateCmd.Flags().StringVar(
		&prCreateFlags.Base, "base", "",
		"branch you are merging into",
	)
	prCreateCmd.Flags().StringVarP(
		&prCreateFlags.Body, "body", "b", "",
		"body of the pull request to create (a value of - will read from stdin)",
	)
	prCreateCmd.Flags().BoolVar(
		&prCreateFlags.Draft, "draft", false,
		"create the pull request in draft mode",
	)
	prCreateCmd.Flags().BoolVar(
		&prCreateFlags.Open, "open", false,
		"open the created pull request in a browser",
	)
	_ = prCreateCmd.MarkFlagRequired("title")
	_ = prCreateCmd.MarkFlagRequired("head")
	_ = prCreateCmd.MarkFlagRequired("base")
}
