package main

import (
	"context"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/apogee-eng/apogee/internal/utils/colors"
)

var buildCmd = &cobra.Command{
	Use:   "build <repository>...",
	Short: "trigger conda builds of packages",
	Long: `Trigger conda builds of packages.

Each repository's conda-build workflow is started through a repository
dispatch event. Repositories are built in the order given; the first failure
aborts.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		for _, slug := range args {
			repo, err := getRepository(slug)
			if err != nil {
				return err
			}
			if err := repo.DispatchEvent(ctx, "conda-build", nil); err != nil {
				return errors.WrapIff(err, "failed to trigger conda build of %s", slug)
			}
			_, _ = fmt.Fprint(os.Stderr, "Building ", colors.UserInput(slug), "\n")
		}
		return nil
	},
}
