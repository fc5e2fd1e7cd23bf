// Package gitexec shells out to git for the few repository operations the
// snapshot pipeline needs (keeping a local clone of the package definitions
// repository fresh).
package gitexec

import (
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	giturls "github.com/chainguard-dev/git-urls"
	"github.com/sirupsen/logrus"
)

type Repo struct {
	repoDir string
	log     logrus.FieldLogger
}

func Open(repoDir string) *Repo {
	return &Repo{
		repoDir,
		logrus.WithFields(logrus.Fields{"repo": path.Base(repoDir)}),
	}
}

func (r *Repo) Dir() string {
	return r.repoDir
}

func (r *Repo) Git(args ...string) (string, error) {
	startTime := time.Now()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoDir
	out, err := cmd.Output()
	log := r.log.WithField("duration", time.Since(startTime))
	if err != nil {
		stderr := "<no output>"
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			stderr = string(exitError.Stderr)
		}
		log.Debugf("git %s failed: %s: %s", args, err, stderr)
		return strings.TrimSpace(string(out)), errors.Wrapf(err, "git %s", args[0])
	}

	log.Debugf("git %s", args)
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch returns the name of the checked-out branch.
func (r *Repo) CurrentBranch() (string, error) {
	return r.Git("rev-parse", "--abbrev-ref", "HEAD")
}

// OriginSlug returns the owner/name slug of the origin remote.
// For example, git@github.com:my-org/my-repo.git becomes my-org/my-repo.
func (r *Repo) OriginSlug() (string, error) {
	// Note: 'git remote get-url' gets the "real" URL of the remote (taking
	// 'insteadOf' from git config into account) whereas 'git config --get ...'
	// does *not*.
	remoteUrl, err := r.Git("remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	if remoteUrl == "" {
		return "", errors.New("remote URL is empty")
	}
	u, err := giturls.Parse(remoteUrl)
	if err != nil {
		return "", errors.WrapIff(err, "failed to parse remote url %q", remoteUrl)
	}
	slug := strings.TrimSuffix(u.Path, ".git")
	slug = strings.TrimPrefix(slug, "/")
	return slug, nil
}

// Clone clones url into dir.
func Clone(url, dir string) (*Repo, error) {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create clone parent directory")
	}
	cmd := exec.Command("git", "clone", url, dir)
	cmd.Dir = parent
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errors.Wrapf(err, "git clone %s: %s", url, strings.TrimSpace(string(out)))
	}
	return Open(dir), nil
}

// Pull fast-forwards the checkout.
func (r *Repo) Pull() error {
	_, err := r.Git("pull")
	return err
}

// Ensure returns a checkout of url at dir, cloning it on first use and
// pulling otherwise (unless update is false). A failed pull is only a
// warning: a stale checkout still works offline.
func Ensure(url, dir string, update bool) (*Repo, error) {
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to stat %s", dir)
		}
		return Clone(url, dir)
	}
	repo := Open(dir)
	if update {
		if err := repo.Pull(); err != nil {
			repo.log.WithError(err).Warn("failed to update checkout; using it as is")
		}
	}
	return repo, nil
}
