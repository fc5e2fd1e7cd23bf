// Package manifest reads conda recipe files (meta.yaml) from a package
// definitions repository and maps each package to the GitHub repository it is
// built from.
package manifest

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"emperror.dev/errors"
	giturls "github.com/chainguard-dev/git-urls"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Package is one entry of the package manifest. A package without a
// Repository is built from sources outside GitHub.
type Package struct {
	// Name is the definition directory name (and the conventional package
	// name).
	Name string `json:"name"`
	// CondaName is the name the conda recipe declares, which can differ from
	// Name. Empty for repositories with no recipe.
	CondaName string `json:"package"`
	// Repository is the owner/name slug of the source repository, if known.
	Repository string `json:"repository"`
	Owner      string `json:"owner"`
	Home       string `json:"home,omitempty"`
}

// Recipe is the subset of a rendered meta.yaml this package cares about.
type Recipe struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`
	About struct {
		Home string `yaml:"home"`
	} `yaml:"about"`
}

var (
	jinjaSet  = regexp.MustCompile(`\{%-?\s*set\s+(\w+)\s*=\s*(.+?)\s*-?%\}`)
	jinjaTag  = regexp.MustCompile(`\{%-?[^%]*-?%\}`)
	jinjaExpr = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)
)

// render flattens the jinja templating that conda recipes use so that the
// result parses as plain YAML. "{% set x = v %}" assignments are recorded and
// substituted into "{{ x }}" expressions; every other expression (compiler
// hints, environment lookups) renders to the empty string, and remaining
// block tags are dropped.
func render(src string) string {
	vars := map[string]string{}
	for _, m := range jinjaSet.FindAllStringSubmatch(src, -1) {
		value := strings.TrimSpace(m[2])
		value = strings.Trim(value, `"'`)
		vars[m[1]] = value
	}
	src = jinjaExpr.ReplaceAllStringFunc(src, func(expr string) string {
		name := jinjaExpr.FindStringSubmatch(expr)[1]
		return vars[name]
	})
	return jinjaTag.ReplaceAllString(src, "")
}

// DecodeRecipe renders and parses a meta.yaml document.
func DecodeRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal([]byte(render(string(data))), &r); err != nil {
		return nil, errors.Wrap(err, "failed to parse recipe")
	}
	return &r, nil
}

// ParseRecipe parses a meta.yaml document into a manifest entry. name is the
// definition directory name the recipe was found under.
func ParseRecipe(name string, data []byte) (*Package, error) {
	r, err := DecodeRecipe(data)
	if err != nil {
		return nil, errors.WrapIff(err, "%s", name)
	}
	pkg := &Package{Name: name, CondaName: r.Package.Name}
	if home := strings.TrimSpace(r.About.Home); home != "" {
		if owner, repo, ok := repoFromHome(home); ok {
			pkg.Owner = owner
			pkg.Repository = owner + "/" + repo
			pkg.Home = home
		}
	}
	return pkg, nil
}

// repoFromHome extracts the owner/name slug from a recipe's home URL.
// Recipes point at GitHub over ssh (git@github.com:owner/repo.git) or https;
// anything else (documentation sites, non-GitHub hosts) yields no repository.
func repoFromHome(home string) (owner, repo string, ok bool) {
	u, err := giturls.Parse(home)
	if err != nil || u.Host != "github.com" {
		return "", "", false
	}
	slug := strings.TrimPrefix(u.Path, "/")
	slug = strings.TrimSuffix(slug, "/")
	slug = strings.TrimSuffix(slug, ".git")
	parts := strings.Split(slug, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Scan reads every pkg_defs/*/meta.yaml under the definitions repository
// checkout at root. Unparseable recipes are skipped with a warning so one
// broken definition does not hide the rest.
func Scan(root string) ([]Package, error) {
	paths, err := filepath.Glob(filepath.Join(root, "pkg_defs", "*", "meta.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to glob package definitions")
	}
	var packages []Package
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIff(err, "failed to read %s", path)
		}
		name := filepath.Base(filepath.Dir(path))
		pkg, err := ParseRecipe(name, data)
		if err != nil {
			logrus.WithError(err).WithField("recipe", path).Warn("skipping unparseable recipe")
			continue
		}
		packages = append(packages, *pkg)
	}
	return packages, nil
}

// Merge combines the manifest's packages with repositories discovered from
// the GitHub organizations, adding an entry for every repository that no
// recipe claims. The result is sorted by (repository, name), so output is
// stable across runs.
func Merge(packages []Package, repos []Package) []Package {
	claimed := map[string]bool{}
	for _, p := range packages {
		if p.Repository != "" {
			claimed[p.Repository] = true
		}
	}
	merged := append([]Package{}, packages...)
	for _, r := range repos {
		if r.Repository == "" || claimed[r.Repository] {
			continue
		}
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Repository != merged[j].Repository {
			return merged[i].Repository < merged[j].Repository
		}
		return merged[i].Name < merged[j].Name
	})
	return merged
}
