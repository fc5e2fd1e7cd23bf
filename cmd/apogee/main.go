package main

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/kr/text"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/actions"
	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var rootFlags struct {
	Debug bool
}

var RootCmd = &cobra.Command{
	Use:   "apogee",
	Short: "inspect and release the packages of a GitHub organization",

	// Don't automatically print errors or usage information (we handle that ourselves).
	// Cobra still prints usage if you return cmd.Usage() from RunE.
	SilenceErrors: true,
	SilenceUsage:  true,

	// Don't show "completion" command in help menu
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},

	// Run setup before invoking any child commands.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootFlags.Debug {
			logrus.SetLevel(logrus.DebugLevel)
			logrus.WithField("apogee_version", config.Version).Debug("enabled debug logging")
		}
		colors.SetupBackgroundColorTypeFromEnv()

		// Note: this only returns an error if config exists and it can't be
		// read/parsed. It doesn't return an error if no config file exists.
		didLoadConfig, err := config.Load(nil)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		if didLoadConfig {
			logrus.Debug("loaded configuration")
		} else {
			logrus.Debug("no configuration found")
		}

		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(
		&rootFlags.Debug, "debug", false,
		"enable verbose debug logging",
	)
	RootCmd.AddCommand(
		buildCmd,
		infoCmd,
		issueCmd,
		prCmd,
		releaseCmd,
		statusCmd,
		upgradeCmd,
		versionCmd,
	)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		var exitSilently actions.ErrExitSilently
		if errors.As(err, &exitSilently) {
			os.Exit(exitSilently.ExitCode)
		}

		// In debug mode, show more detailed information about the error
		// (including the stack trace if using pkg/errors).
		if rootFlags.Debug {
			stackTrace := fmt.Sprintf("%+v", err)
			_, _ = fmt.Fprintf(os.Stderr, "error: %s\n%s\n", err, text.Indent(stackTrace, "\t"))
		} else {
			_, _ = fmt.Fprint(os.Stderr, renderError(err))
		}

		os.Exit(1)
	}
}
