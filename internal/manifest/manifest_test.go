package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const acaRecipe = `{% set version = "4.30.0" %}
package:
  name: chandra-aca
  version: {{ version }}

build:
  number: 0

requirements:
  build:
    - {{ compiler('c') }}
  run:
    - python
    - ska_helpers

about:
  home: https://github.com/sot/chandra_aca
  license: BSD
`

func TestParseRecipe(t *testing.T) {
	pkg, err := ParseRecipe("chandra-aca", []byte(acaRecipe))
	require.NoError(t, err)
	require.Equal(t, "chandra-aca", pkg.Name)
	require.Equal(t, "chandra-aca", pkg.CondaName)
	require.Equal(t, "sot", pkg.Owner)
	require.Equal(t, "sot/chandra_aca", pkg.Repository)
	require.Equal(t, "https://github.com/sot/chandra_aca", pkg.Home)
}

func TestDecodeRecipeVersion(t *testing.T) {
	r, err := DecodeRecipe([]byte(acaRecipe))
	require.NoError(t, err)
	require.Equal(t, "chandra-aca", r.Package.Name)
	require.Equal(t, "4.30.0", r.Package.Version)

	// Unquoted versions like 2024.10 must survive as written, not as a
	// number.
	r, err = DecodeRecipe([]byte("package:\n  name: ska3-flight\n  version: 2024.10\n"))
	require.NoError(t, err)
	require.Equal(t, "2024.10", r.Package.Version)
}

func TestRepoFromHome(t *testing.T) {
	for _, tt := range []struct {
		home  string
		owner string
		repo  string
		ok    bool
	}{
		{"git@github.com:sot/ska_helpers.git", "sot", "ska_helpers", true},
		{"git@github.com:sot/ska_helpers", "sot", "ska_helpers", true},
		{"https://github.com/acisops/acis-thermal-check", "acisops", "acis-thermal-check", true},
		{"https://github.com/sot/cheta/", "sot", "cheta", true},
		{"http://github.com/sot/Quaternion", "sot", "Quaternion", true},
		{"https://github.com/sot", "", "", false},
		{"https://gitlab.com/other/repo", "", "", false},
		{"https://docs.python.org/3/", "", "", false},
	} {
		t.Run(tt.home, func(t *testing.T) {
			owner, repo, ok := repoFromHome(tt.home)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.owner, owner)
			require.Equal(t, tt.repo, repo)
		})
	}
}

func TestRenderDropsJinja(t *testing.T) {
	src := `{% set name = "ska3-flight" %}
package:
  name: {{ name }}
  version: {{ environ.get('SKA_PKG_VERSION') }}
{% if linux %}
extra:
  final: true
{% endif %}
`
	rendered := render(src)
	require.NotContains(t, rendered, "{%")
	require.NotContains(t, rendered, "{{")
	require.Contains(t, rendered, "name: ska3-flight")
}

func TestScanSkipsBrokenRecipes(t *testing.T) {
	root := t.TempDir()
	writeRecipe := func(name, content string) {
		dir := filepath.Join(root, "pkg_defs", name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.yaml"), []byte(content), 0644))
	}
	writeRecipe("chandra-aca", acaRecipe)
	writeRecipe("broken", "package:\n  name: [unclosed\n")
	writeRecipe("offsite", "package:\n  name: offsite\nabout:\n  home: https://example.com/docs\n")

	packages, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, packages, 2)
	require.Equal(t, "chandra-aca", packages[0].Name)
	require.Equal(t, "offsite", packages[1].Name)
	require.Empty(t, packages[1].Repository, "non-GitHub home must not map to a repository")
}

func TestMerge(t *testing.T) {
	packages := []Package{
		{Name: "chandra-aca", CondaName: "chandra-aca", Repository: "sot/chandra_aca", Owner: "sot"},
		{Name: "ska3-flight", CondaName: "ska3-flight"},
	}
	repos := []Package{
		{Name: "sot/chandra_aca", Repository: "sot/chandra_aca", Owner: "sot"},
		{Name: "acisops/acis-thermal-check", Repository: "acisops/acis-thermal-check", Owner: "acisops"},
	}

	merged := Merge(packages, repos)
	require.Len(t, merged, 3)

	// Sorted by (repository, name): the meta-package with no repository
	// first, then the claimed recipe, then the unclaimed repository.
	require.Equal(t, "ska3-flight", merged[0].Name)
	require.Equal(t, "acisops/acis-thermal-check", merged[1].Repository)
	require.Equal(t, "chandra-aca", merged[2].Name)
	require.Equal(t, "chandra-aca", merged[2].CondaName, "recipe entry wins over the bare repository")
}
