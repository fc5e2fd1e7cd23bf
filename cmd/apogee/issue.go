package main

import "github.com/spf13/cobra"

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "work with GitHub issues",
}

func init() {
	issueCmd.AddCommand(
		issueCreateCmd,
		issueMilestoneCmd,
	)
}
