package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/utils/errutils"
)

const noGitHubToken = `# ERROR: No GitHub Token

` + "`apogee`" + ` needs a GitHub API token to talk to the API. There are two ways to provide one:

1. Set the ` + "`APOGEE_GITHUB_TOKEN`" + ` (or ` + "`GITHUB_TOKEN`" + `) environment variable to a Personal Access Token, or to the path of a file containing one.
2. Set ` + "`github.token`" + ` in the configuration file.

We couldn't find a token in the environment nor in the config. Please set up the token and try again.
`

func renderError(err error) string {
	var style string
	if lipgloss.HasDarkBackground() {
		style = styles.DarkStyle
	} else {
		style = styles.LightStyle
	}
	if _, ok := errutils.As[*gh.ConfigurationError](err); ok {
		if out, rerr := glamour.Render(noGitHubToken, style); rerr == nil {
			return out
		}
	}
	// This is a placeholder for a more sophisticated error renderer.
	// For now, we just print the error message.
	return fmt.Sprintf("error: %s\n", err)
}
