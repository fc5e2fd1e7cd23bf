package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/config"
)

var issueMilestoneFlags struct {
	Repo  string
	Label string
}

const milestoneIssuesQuery = `
query ($owner: String!, $name: String!, $label: String!) {
  repository(owner: $owner, name: $name) {
    issues(first: 100, states: OPEN, labels: [$label]) {
      nodes {
        number
        title
        milestone {
          title
        }
      }
    }
  }
}`

var issueMilestoneCmd = &cobra.Command{
	Use:   "milestone <milestone>",
	Short: "list the open issues filed under a milestone",
	Long: `List the open issues filed under a milestone.

Each issue is printed as a "Fixes #N" line, ready to be pasted into the body
of the pull request that closes them.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		milestone := args[0]
		slug := issueMilestoneFlags.Repo
		if slug == "" {
			slug = config.Apogee.Definitions.Repo
		}
		repo, err := getRepository(slug)
		if err != nil {
			return err
		}

		client, err := getClient()
		if err != nil {
			return err
		}
		var out struct {
			Repository struct {
				Issues struct {
					Nodes []struct {
						Number    int    `json:"number"`
						Title     string `json:"title"`
						Milestone *struct {
							Title string `json:"title"`
						} `json:"milestone"`
					} `json:"nodes"`
				} `json:"issues"`
			} `json:"repository"`
		}
		err = client.GraphQL().Query(context.Background(), milestoneIssuesQuery,
			map[string]interface{}{
				"owner": repo.Owner,
				"name":  repo.Name,
				"label": issueMilestoneFlags.Label,
			}, &out)
		if err != nil {
			return err
		}

		var numbers []int
		for _, node := range out.Repository.Issues.Nodes {
			if node.Milestone != nil && node.Milestone.Title == milestone {
				numbers = append(numbers, node.Number)
			}
		}
		sort.Ints(numbers)
		for _, number := range numbers {
			_, _ = fmt.Fprintf(os.Stdout, "Fixes #%d\n", number)
		}
		return nil
	},
}

func init() {
	issueMilestoneCmd.Flags().StringVar(
		&issueMilestoneFlags.Repo, "repo", "",
		"repository to inspect (defaults to the definitions repository)",
	)
	issueMilestoneCmd.Flags().StringVar(
		&issueMilestoneFlags.Label, "label", "Package update",
		"only consider issues carrying this label",
	)
}
