package packages

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"github.com/apogee-eng/apogee/internal/config"
	"github.com/apogee-eng/apogee/internal/conda"
	"github.com/apogee-eng/apogee/internal/gitexec"
	"github.com/apogee-eng/apogee/internal/manifest"
	"github.com/apogee-eng/apogee/internal/utils/sliceutils"
)

const (
	packageListKey    = "pkg-name-map"
	packageListMaxAge = 24 * time.Hour
)

// metaPackages are the conda meta-packages whose pins define what ships.
var metaPackages = []string{"ska3-flight", "ska3-matlab"}

// Snapshot is the status of every package, plus the meta-package versions
// the statuses were resolved against.
type Snapshot struct {
	Time time.Time `json:"time"`
	// Flight and Matlab are the newest versions of the ska3-flight and
	// ska3-matlab meta-packages on the main channel.
	Flight   string        `json:"ska3-flight"`
	Matlab   string        `json:"ska3-matlab"`
	Packages []*RepoStatus `json:"packages"`
}

// SnapshotOpts controls snapshot assembly.
type SnapshotOpts struct {
	// Repositories restricts the snapshot to these owner/name slugs. Empty
	// means every repository in the package list owned by the configured
	// organizations.
	Repositories []string
	// Update bypasses all caches.
	Update bool
	Status StatusOpts
}

// PackageList returns the package manifest: every conda recipe in the
// definitions repository plus every organization repository no recipe
// claims. The list is cached for a day.
func (s *Service) PackageList(ctx context.Context, update bool) ([]manifest.Package, error) {
	cache := docCache{s.dataDir}
	var list []manifest.Package
	if s.dataDir != "" && !update && cache.read(packageListKey, packageListMaxAge, &list) {
		return list, nil
	}

	checkout := filepath.Join(s.dataDir, path.Base(config.Apogee.Definitions.Repo))
	repo, err := gitexec.Ensure(config.Apogee.Definitions.Url, checkout, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check out the definitions repository")
	}
	recipes, err := manifest.Scan(repo.Dir())
	if err != nil {
		return nil, err
	}

	var orgRepos []manifest.Package
	for _, org := range config.Apogee.Organizations {
		repos, err := s.client.Organization(org).Repositories(nil).All(ctx)
		if err != nil {
			return nil, errors.WrapIff(err, "failed to list repositories for %s", org)
		}
		for _, r := range repos {
			orgRepos = append(orgRepos, manifest.Package{
				Name:       r.FullName,
				Repository: r.FullName,
				Owner:      r.Owner.Login,
			})
		}
	}

	list = manifest.Merge(recipes, orgRepos)
	if s.dataDir != "" {
		if err := cache.write(packageListKey, list); err != nil {
			logrus.WithError(err).Warn("failed to cache package list")
		}
	}
	return list, nil
}

// Snapshot assembles the status of every package. Repository failures are
// logged and skipped so one broken repository does not sink the whole
// snapshot; unreachable conda channels abort it.
func (s *Service) Snapshot(ctx context.Context, opts SnapshotOpts) (*Snapshot, error) {
	list, err := s.PackageList(ctx, opts.Update)
	if err != nil {
		return nil, err
	}
	repoConda := map[string]string{}
	for _, p := range list {
		if p.Repository != "" {
			repoConda[p.Repository] = p.CondaName
		}
	}

	repos := opts.Repositories
	if len(repos) == 0 {
		repos = defaultRepositories(list)
	}

	snap := &Snapshot{Time: time.Now(), Packages: []*RepoStatus{}}
	pins := map[string]map[string]string{}
	for _, pkg := range metaPackages {
		version, depends, err := condaMetaPackage(ctx, pkg, "main")
		if err != nil {
			var unreachable *conda.UnreachableChannelsError
			if errors.As(err, &unreachable) {
				return nil, err
			}
			logrus.WithError(err).Warnf("no pins from %s", pkg)
		}
		pins[pkg] = depends
		switch pkg {
		case "ska3-flight":
			snap.Flight = version
		case "ska3-matlab":
			snap.Matlab = version
		}
	}

	for _, slug := range repos {
		owner, name, ok := strings.Cut(slug, "/")
		if !ok {
			logrus.Warnf("skipping malformed repository %q", slug)
			continue
		}
		status, err := s.CachedRepoStatus(ctx, owner, name, opts.Status, opts.Update)
		if err != nil {
			logrus.WithError(err).Warnf("failed to get info on %s", slug)
			continue
		}
		condaName := repoConda[slug]
		status.Flight = pins["ska3-flight"][condaName]
		status.Matlab = pins["ska3-matlab"][condaName]
		snap.Packages = append(snap.Packages, status)
	}

	return snap, nil
}

// defaultRepositories picks the repositories owned by the configured
// organizations out of the package list, deduplicated in list order.
func defaultRepositories(list []manifest.Package) []string {
	var repos []string
	for _, p := range list {
		if p.Repository == "" || !sliceutils.Contains(config.Apogee.Organizations, p.Owner) {
			continue
		}
		repos = sliceutils.AppendIfNotContains(repos, p.Repository)
	}
	return repos
}
