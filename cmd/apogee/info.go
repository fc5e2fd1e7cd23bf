package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/packages"
	"github.com/apogee-eng/apogee/internal/utils/cleanup"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var infoFlags struct {
	Output       string
	Update       bool
	Repositories []string
	Since        string
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "collect the status of every package into a snapshot",
	Long: `Collect the status of every package into a snapshot document.

The snapshot records, for each package: repository activity, the release
history with the pull requests each release merged, open pull requests,
workflows, and the versions shipped in the conda meta-packages. Other
commands ("apogee status", "apogee release summary") read it from disk.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := getService()
		if err != nil {
			return err
		}
		status := packages.DefaultStatusOpts
		status.Since = packages.ParseSince(infoFlags.Since)
		snap, err := service.Snapshot(context.Background(), packages.SnapshotOpts{
			Repositories: infoFlags.Repositories,
			Update:       infoFlags.Update,
			Status:       status,
		})
		if err != nil {
			return err
		}

		f, err := os.Create(infoFlags.Output)
		if err != nil {
			return errors.WrapIff(err, "failed to create %s", infoFlags.Output)
		}
		var cu cleanup.Cleanup
		cu.Add(func() {
			_ = f.Close()
			_ = os.Remove(infoFlags.Output)
		})
		defer cu.Cleanup()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return errors.WrapIff(err, "failed to write %s", infoFlags.Output)
		}
		if err := f.Close(); err != nil {
			return errors.WrapIff(err, "failed to write %s", infoFlags.Output)
		}
		cu.Cancel()

		if err := config.LoadUserState(); err != nil {
			logrus.WithError(err).Debug("failed to load user state")
		}
		config.UserState.LastSnapshot = snap.Time
		if err := config.SaveUserState(); err != nil {
			logrus.WithError(err).Debug("failed to save user state")
		}

		_, _ = fmt.Fprint(os.Stderr,
			"Wrote the status of ", colors.UserInput(len(snap.Packages)),
			" package(s) to ", colors.UserInput(infoFlags.Output), "\n",
		)
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVarP(
		&infoFlags.Output, "output", "o", "repository_info.json",
		"file to write the snapshot to",
	)
	infoCmd.Flags().BoolVar(
		&infoFlags.Update, "update", false,
		"bypass the caches and query everything again",
	)
	infoCmd.Flags().StringSliceVar(
		&infoFlags.Repositories, "repository", nil,
		"restrict the snapshot to this owner/name repository (may be repeated)",
	)
	infoCmd.Flags().StringVar(
		&infoFlags.Since, "since", "",
		"how much release history to keep: a number of releases, or a release tag",
	)
}
