package main

import "github.com/spf13/cobra"

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "work with package releases",
}

func init() {
	releaseCmd.AddCommand(
		releaseCheckCmd,
		releaseNotesCmd,
		releaseSummaryCmd,
	)
}
