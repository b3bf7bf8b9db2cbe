// Package catalog reads the local repository cache and produces typed
// Template descriptors. Pure read: the catalog never mutates the tree and
// never triggers a repository refresh.
package catalog

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/paths"
	"github.com/templink/templink/pkg/types"
)

// Catalog lists and loads templates from a repository cache directory.
type Catalog struct {
	fs   types.FS
	root string
	log  zerolog.Logger
}

// New creates a Catalog over the repository cache at root.
func New(fs types.FS, root string) *Catalog {
	return &Catalog{
		fs:   fs,
		root: root,
		log:  logging.GetLogger("catalog"),
	}
}

// List returns all templates, optionally filtered by scope (empty scope
// means both). Returns CatalogMissing/CatalogEmpty errors when the cache
// tree is absent or holds no templates.
func (c *Catalog) List(scope types.Scope) ([]types.Template, error) {
	if _, err := c.fs.Stat(c.root); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCatalogMissing,
				"repository cache not found at %s, run sync first", c.root)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read repository cache at %s", c.root)
	}

	scopes := []types.Scope{types.ScopeDotfiles, types.ScopeProject}
	if scope != "" {
		if !scope.Valid() {
			return nil, errors.Newf(errors.ErrInvalidInput, "unknown scope %q", scope)
		}
		scopes = []types.Scope{scope}
	}

	var templates []types.Template
	for _, s := range scopes {
		scopeTemplates, err := c.listScope(s)
		if err != nil {
			return nil, err
		}
		templates = append(templates, scopeTemplates...)
	}

	if len(templates) == 0 {
		return nil, errors.Newf(errors.ErrCatalogEmpty, "no templates found in %s", c.root)
	}

	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Scope != templates[j].Scope {
			return templates[i].Scope < templates[j].Scope
		}
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

// Get loads one template by name. Scope may be empty to search dotfiles
// first, then projects.
func (c *Catalog) Get(name string, scope types.Scope) (*types.Template, error) {
	if !types.ValidTemplateName(name) {
		return nil, errors.Newf(errors.ErrInvalidInput, "invalid template name %q", name)
	}

	scopes := []types.Scope{types.ScopeDotfiles, types.ScopeProject}
	if scope != "" {
		scopes = []types.Scope{scope}
	}

	for _, s := range scopes {
		dir := filepath.Join(c.root, s.Dir(), name)
		info, err := c.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		tmpl, err := c.loadTemplate(s, name, dir)
		if err != nil {
			return nil, err
		}
		return tmpl, nil
	}

	return nil, errors.Newf(errors.ErrTemplateNotFound, "template %q not found", name)
}

func (c *Catalog) listScope(scope types.Scope) ([]types.Template, error) {
	scopeDir := filepath.Join(c.root, scope.Dir())
	entries, err := c.fs.ReadDir(scopeDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", scopeDir)
	}

	var templates []types.Template
	for _, entry := range entries {
		if !entry.IsDir() || !types.ValidTemplateName(entry.Name()) {
			continue
		}
		tmpl, err := c.loadTemplate(scope, entry.Name(), filepath.Join(scopeDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tmpl)
	}
	return templates, nil
}

func (c *Catalog) loadTemplate(scope types.Scope, name, dir string) (*types.Template, error) {
	tmpl := &types.Template{
		Name:     name,
		Scope:    scope,
		Path:     dir,
		Metadata: map[string]any{},
	}

	manifest, err := c.collectFiles(dir, "")
	if err != nil {
		return nil, err
	}
	sort.Slice(manifest, func(i, j int) bool { return manifest[i].RelPath < manifest[j].RelPath })
	tmpl.Manifest = manifest

	if len(manifest) == 0 {
		return nil, errors.Newf(errors.ErrTemplateInvalid,
			"template %q (%s) contains no files", name, scope)
	}

	scriptPath := filepath.Join(dir, paths.InstallScriptName)
	if info, err := c.fs.Stat(scriptPath); err == nil && !info.IsDir() {
		tmpl.InstallScript = scriptPath
	}

	c.loadMetadata(tmpl, filepath.Join(dir, paths.MetadataFileName))
	return tmpl, nil
}

// collectFiles walks the template tree, skipping the metadata file and the
// install script, and returns manifest entries with slash-separated paths.
func (c *Catalog) collectFiles(dir, prefix string) ([]types.ManifestEntry, error) {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read template directory %s", dir)
	}

	var manifest []types.ManifestEntry
	for _, entry := range entries {
		rel := path.Join(prefix, entry.Name())
		if entry.IsDir() {
			sub, err := c.collectFiles(filepath.Join(dir, entry.Name()), rel)
			if err != nil {
				return nil, err
			}
			manifest = append(manifest, sub...)
			continue
		}
		if entry.Name() == paths.MetadataFileName || entry.Name() == paths.InstallScriptName {
			continue
		}
		manifest = append(manifest, types.ManifestEntry{RelPath: rel})
	}
	return manifest, nil
}

// loadMetadata parses metadata.toml. A missing file is fine; a malformed
// one degrades to empty metadata with a warning.
func (c *Catalog) loadMetadata(tmpl *types.Template, metaPath string) {
	data, err := c.fs.ReadFile(metaPath)
	if err != nil {
		return
	}

	meta := map[string]any{}
	if err := gotoml.Unmarshal(data, &meta); err != nil {
		c.log.Warn().Err(err).Str("template", tmpl.Name).Str("path", metaPath).
			Msg("Ignoring malformed metadata file")
		return
	}

	tmpl.Metadata = meta
	if desc, ok := meta["description"].(string); ok {
		tmpl.Description = desc
	}
}
