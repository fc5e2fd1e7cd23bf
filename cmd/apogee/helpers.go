package main

import (
	"encoding/json"
	"io"
	"os"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/gh"
	"github.com/apogee-eng/apogee/internal/gitexec"
	"github.com/apogee-eng/apogee/internal/packages"
)

var cachedClient *gh.Client

func getClient() (*gh.Client, error) {
	if cachedClient == nil {
		var opts []gh.ClientOption
		if u := config.Apogee.GitHub.BaseUrl; u != "" {
			opts = append(opts, gh.WithBaseURL(u))
		}
		if u := config.Apogee.GitHub.GraphQLUrl; u != "" {
			opts = append(opts, gh.WithGraphQLURL(u))
		}
		client, err := gh.NewClient(config.Apogee.GitHub.Token, opts...)
		if err != nil {
			return nil, err
		}
		cachedClient = client
	}
	return cachedClient, nil
}

// getRepository resolves a repository handle from an owner/name slug. An
// empty slug falls back to the origin remote of the current directory, so
// commands run from inside a checkout don't need --repo at all.
func getRepository(slug string) (*gh.Repository, error) {
	client, err := getClient()
	if err != nil {
		return nil, err
	}
	if slug == "" {
		slug, err = gitexec.Open(".").OriginSlug()
		if err != nil {
			logrus.WithError(err).Debug("failed to detect the origin remote")
			return nil, errors.New(
				"no repository given and the current directory is not a git checkout (pass --repo)",
			)
		}
	}
	return client.RepositoryBySlug(slug)
}

func getService() (*packages.Service, error) {
	client, err := getClient()
	if err != nil {
		return nil, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	return packages.NewService(client, dataDir), nil
}

// readSnapshot loads a snapshot document written by "apogee info".
func readSnapshot(path string) (*packages.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf(
				"%s does not exist (run \"apogee info\" to create it)", path,
			)
		}
		return nil, errors.WrapIff(err, "failed to read %s", path)
	}
	var snap packages.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.WrapIff(err, "failed to parse %s", path)
	}
	return &snap, nil
}

// readBodyFlag returns the flag value, or the contents of stdin when the
// value is "-".
func readBodyFlag(value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read body from stdin")
	}
	return string(body), nil
}
