// Package list implements the list command: enumerate the templates
// available in the repository.
package list

import (
	"github.com/templink/templink/pkg/catalog"
	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/types"
)

// Options defines the options for the List command.
type Options struct {
	// RepoDir is the template repository root.
	RepoDir string

	// Scope restricts the listing. Empty lists both scopes.
	Scope types.Scope

	// FS overrides the filesystem, for tests. Nil means the OS.
	FS types.FS
}

// Result holds the discovered templates, sorted by scope then name.
type Result struct {
	Templates []types.Template
}

// ByScope returns the subset of templates in the given scope, preserving
// order.
func (r *Result) ByScope(scope types.Scope) []types.Template {
	var out []types.Template
	for _, t := range r.Templates {
		if t.Scope == scope {
			out = append(out, t)
		}
	}
	return out
}

// List enumerates templates in the repository.
func List(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.list")

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	templates, err := catalog.New(fs, opts.RepoDir).List(opts.Scope)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("templates", len(templates)).Str("scope", string(opts.Scope)).Msg("Listed templates")
	return &Result{Templates: templates}, nil
}
