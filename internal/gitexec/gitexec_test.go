package gitexec

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// Initialize a new git repository.
func initTempRepo(t *testing.T) *Repo {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	dir := t.TempDir()
	init := exec.Command("git", "init", "--initial-branch=main")
	init.Dir = dir
	require.NoError(t, init.Run(), "failed to initialize git repository")

	repo := Open(dir)
	settings := map[string]string{
		"user.name":  "apogee-test",
		"user.email": "apogee-test@nonexistant",
	}
	for k, v := range settings {
		_, err := repo.Git("config", k, v)
		require.NoErrorf(t, err, "failed to set config %s=%s", k, v)
	}
	return repo
}

func TestCurrentBranch(t *testing.T) {
	repo := initTempRepo(t)
	err := os.WriteFile(repo.Dir()+"/README.md", []byte("# Hello World"), 0644)
	require.NoError(t, err, "failed to write README.md")
	_, err = repo.Git("add", "README.md")
	require.NoError(t, err, "failed to stage README.md")
	_, err = repo.Git("commit", "-m", "Initial commit")
	require.NoError(t, err, "failed to create initial commit")

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestOriginSlug(t *testing.T) {
	for _, url := range []string{
		"git@github.com:apogee-eng/chandra_aca.git",
		"https://github.com/apogee-eng/chandra_aca.git",
		"https://github.com/apogee-eng/chandra_aca",
	} {
		repo := initTempRepo(t)
		_, err := repo.Git("remote", "add", "origin", url)
		require.NoError(t, err, "failed to set remote")

		slug, err := repo.OriginSlug()
		require.NoError(t, err)
		require.Equal(t, "apogee-eng/chandra_aca", slug)
	}
}
