package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Version)
		if config.Version == config.VersionDev {
			return
		}
		latest, err := config.FetchLatestVersion()
		if err != nil {
			logrus.WithError(err).Debug("failed to determine the latest version")
			return
		}
		if semver.IsValid(latest) && semver.Compare(latest, config.Version) > 0 {
			_, _ = fmt.Fprint(os.Stderr,
				colors.Faint("A newer version (", latest, ") is available."), "\n",
			)
		}
	},
}
