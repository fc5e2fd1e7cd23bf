package packages

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/apogee-eng/apogee/internal/utils/sanitize"
)

// docCache stores JSON documents under a directory, one file per key. Age is
// judged by file modification time.
type docCache struct {
	dir string
}

func (c docCache) path(key string) string {
	return filepath.Join(c.dir, sanitize.FileName(key)+".json")
}

// read loads the document stored under key into out. It reports a miss when
// the file is absent, unreadable, or older than maxAge (maxAge zero means no
// age limit).
func (c docCache) read(key string, maxAge time.Duration, out interface{}) bool {
	path := c.path(key)
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	if maxAge > 0 && time.Since(stat.ModTime()) > maxAge {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A corrupt entry is as good as a missing one.
		logrus.WithError(err).WithField("cache", path).Warn("dropping corrupt cache entry")
		_ = os.Remove(path)
		return false
	}
	return true
}

func (c docCache) write(key string, doc interface{}) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache entry")
	}
	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		return errors.Wrap(err, "failed to write cache entry")
	}
	return nil
}

// Clear removes every cached document (status docs and the package list).
func (s *Service) Clear() error {
	if s.dataDir == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(s.dataDir, "pkg_info")); err != nil {
		return errors.Wrap(err, "failed to clear status cache")
	}
	if err := os.Remove(docCache{s.dataDir}.path(packageListKey)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to clear package list cache")
	}
	return nil
}

// CachedRepoStatus returns the status document for a repository, reusing the
// cached one while the repository has seen no pushes or updates since it was
// written. The cache does not record assembly options; callers that vary
// opts should use RepoStatus directly.
func (s *Service) CachedRepoStatus(
	ctx context.Context,
	owner, name string,
	opts StatusOpts,
	update bool,
) (*RepoStatus, error) {
	if s.dataDir == "" {
		return s.RepoStatus(ctx, owner, name, opts)
	}
	cache := docCache{filepath.Join(s.dataDir, "pkg_info")}
	key := "repo-status-" + owner + "-" + name

	var cached RepoStatus
	if !update && cache.read(key, 0, &cached) {
		stale, err := s.statusIsStale(ctx, &cached)
		if err != nil {
			logrus.WithError(err).WithField("repo", owner+"/"+name).
				Debug("could not check staleness; refreshing")
			stale = true
		}
		if !stale {
			return &cached, nil
		}
	}

	status, err := s.RepoStatus(ctx, owner, name, opts)
	if err != nil {
		return nil, err
	}
	if err := cache.write(key, status); err != nil {
		logrus.WithError(err).Warn("failed to cache repository status")
	}
	return status, nil
}

// statusIsStale checks whether the repository has moved past the cached
// document, with a probe much cheaper than reassembling it.
func (s *Service) statusIsStale(ctx context.Context, cached *RepoStatus) (bool, error) {
	activity, err := s.client.RepoActivity(ctx, cached.Owner, cached.Name)
	if err != nil {
		return true, err
	}
	return cached.PushedAt.Before(activity.PushedAt) ||
		cached.UpdatedAt.Before(activity.UpdatedAt), nil
}
