// pkg/catalog/catalog_test.go
// TEST TYPE: Unit Test (real filesystem)
// DEPENDENCIES: testutil repo builders
// PURPOSE: Test template discovery, manifests, metadata, and error cases

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templink/templink/pkg/catalog"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/testutil"
	"github.com/templink/templink/pkg/types"
)

func TestListAllScopes(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{
		".vimrc": "\" vim config",
	})
	env.AddTemplate("python-project", types.ScopeProject, map[string]string{
		"pyproject.toml": "[project]\nname = \"x\"\n",
	})

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	templates, err := cat.List("")
	require.NoError(t, err)
	require.Len(t, templates, 2)

	// Dotfiles sort before projects.
	assert.Equal(t, "vim", templates[0].Name)
	assert.Equal(t, types.ScopeDotfiles, templates[0].Scope)
	assert.Equal(t, "python-project", templates[1].Name)
	assert.Equal(t, types.ScopeProject, templates[1].Scope)
}

func TestListScopeFilter(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	env.AddTemplate("go-project", types.ScopeProject, map[string]string{"go.mod": "module x"})

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	templates, err := cat.List(types.ScopeProject)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "go-project", templates[0].Name)
}

func TestListMissingRepo(t *testing.T) {
	cat := catalog.New(filesystem.NewOS(), filepath.Join(t.TempDir(), "absent"))
	_, err := cat.List("")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCatalogMissing))
}

func TestListEmptyRepo(t *testing.T) {
	cat := catalog.New(filesystem.NewOS(), t.TempDir())
	_, err := cat.List("")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCatalogEmpty))
}

func TestEmptyTemplateIsInvalid(t *testing.T) {
	env := testutil.NewEnvironment(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.RepoDir, "dotfiles", "empty"), 0755))

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	_, err := cat.Get("empty", types.ScopeDotfiles)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateInvalid))
}

func TestGetNotFound(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	_, err := cat.Get("emacs", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateNotFound))
}

func TestGetRejectsInvalidName(t *testing.T) {
	env := testutil.NewEnvironment(t)
	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	_, err := cat.Get("../escape", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestManifestOrderingAndExclusions(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("shell", types.ScopeDotfiles, map[string]string{
		".zshrc":              "z",
		".config/sh/rc":       "r",
		".config/sh/aliases":  "a",
		"metadata.toml":       `description = "shell setup"`,
		"install.sh":          "#!/bin/sh\ntrue\n",
		".config/sh/local.sh": "l",
	})

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	tmpl, err := cat.Get("shell", types.ScopeDotfiles)
	require.NoError(t, err)

	var rels []string
	for _, e := range tmpl.Manifest {
		rels = append(rels, e.RelPath)
	}
	assert.Equal(t, []string{
		".config/sh/aliases",
		".config/sh/local.sh",
		".config/sh/rc",
		".zshrc",
	}, rels, "manifest is sorted and excludes metadata.toml and install.sh")

	assert.Equal(t, "shell setup", tmpl.Description)
	assert.True(t, tmpl.HasInstallScript())
	assert.Equal(t, filepath.Join(tmpl.Path, "install.sh"), tmpl.InstallScript)
}

func TestMalformedMetadataDegrades(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("broken-meta", types.ScopeDotfiles, map[string]string{
		".rc":           "x",
		"metadata.toml": "not = [valid toml",
	})

	cat := catalog.New(filesystem.NewOS(), env.RepoDir)
	tmpl, err := cat.Get("broken-meta", types.ScopeDotfiles)
	require.NoError(t, err)
	assert.Empty(t, tmpl.Description)
	assert.Empty(t, tmpl.Metadata)
}
