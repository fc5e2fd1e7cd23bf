package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/editor"
	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var issueCreateFlags struct {
	Repo      string
	Title     string
	Body      string
	Milestone int
	Labels    []string
	Assignees []string
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create an issue",
	Long: `Create an issue.

Example:
  Open an update reminder on the definitions repository:

    $ apogee issue create --repo sot/skare3 --title "Update chandra_aca" \
        --label "Package update" --milestone 7
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := getRepository(issueCreateFlags.Repo)
		if err != nil {
			return err
		}
		var body string
		if cmd.Flags().Changed("body") {
			body, err = readBodyFlag(issueCreateFlags.Body)
		} else {
			body, err = editIssueBody(issueCreateFlags.Title)
		}
		if err != nil {
			return err
		}

		opts := gh.IssueCreateOpts{
			Title:     issueCreateFlags.Title,
			Body:      body,
			Labels:    issueCreateFlags.Labels,
			Assignees: issueCreateFlags.Assignees,
		}
		if cmd.Flags().Changed("milestone") {
			opts.Milestone = gh.Ptr(issueCreateFlags.Milestone)
		}

		issue, err := repo.Issues.Create(context.Background(), opts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(os.Stderr,
			"Created issue ", colors.UserInput("#", issue.Number),
			": ", colors.UserInput(issue.Title), "\n",
			"  ", colors.Faint(issue.HTMLURL), "\n",
		)
		return nil
	},
}

// editIssueBody composes the issue body in the user's editor. Markdown
// headings start with #, so comment lines use %% instead.
func editIssueBody(title string) (string, error) {
	text := fmt.Sprintf(issueBodyTemplate, title)
	body, err := editor.Launch(nil, editor.Config{
		Text:           text,
		TmpFilePattern: "apogee-issue-*.md",
		CommentPrefix:  "%%",
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to compose issue body")
	}
	return strings.TrimSpace(body), nil
}

const issueBodyTemplate = `
%%%% Describe the issue %q.
%%%% Lines starting with %%%% are removed from the body.
`

func init() {
	issueCreateCmd.Flags().StringVar(
		&issueCreateFlags.Repo, "repo", "",
		"repository to open the issue on (defaults to the origin of the current checkout)",
	)
	issueCreateCmd.Flags().StringVarP(
		&issueCreateFlags.Title, "title", "t", "",
		"issue title",
	)
	issueCreateCmd.Flags().StringVarP(
		&issueCreateFlags.Body, "body", "b", "",
		"issue body (a value of - will read from stdin; omit the flag to compose in your editor)",
	)
	issueCreateCmd.Flags().IntVar(
		&issueCreateFlags.Milestone, "milestone", 0,
		"number of the milestone to file the issue under",
	)
	issueCreateCmd.Flags().StringSliceVar(
		&issueCreateFlags.Labels, "label", nil,
		"label to apply to the issue (may be repeated)",
	)
	issueCreateCmd.Flags().StringSliceVar(
		&issueCreateFlags.Assignees, "assignee", nil,
		"login to assign the issue to (may be repeated)",
	)
	_ = issueCreateCmd.MarkFlagRequired("title")
}
