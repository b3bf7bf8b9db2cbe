// Package install implements the install command: apply dotfiles
// templates into the home directory as symlinks.
package install

import (
	"context"
	"time"

	"github.com/templink/templink/pkg/catalog"
	"github.com/templink/templink/pkg/engine"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/executor"
	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/ledger"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/planner"
	"github.com/templink/templink/pkg/probe"
	"github.com/templink/templink/pkg/types"
)

// Options defines the options for the Install command.
type Options struct {
	// RepoDir is the template repository root.
	RepoDir string

	// TemplateNames selects specific dotfiles templates. Empty installs
	// every dotfiles template in the repository.
	TemplateNames []string

	// HomeDir is where symlinks land.
	HomeDir string

	// LedgerDir backs application records.
	LedgerDir string

	DryRun bool
	Force  bool

	// RunScripts enables post-apply install scripts, gated per template
	// by ConfirmScript.
	RunScripts    bool
	ConfirmScript func(scriptPath string) bool
	ScriptTimeout time.Duration

	MaxParallel int

	// Runner executes install scripts. Nil disables script execution.
	Runner executor.ScriptRunner

	// FS overrides the filesystem, for tests. Nil means the OS.
	FS types.FS
}

// Result aggregates the per-template outcomes of one install run.
type Result struct {
	Results []*engine.TemplateResult
	DryRun  bool
}

// HasConflicts reports whether any template left unresolved conflicts.
func (r *Result) HasConflicts() bool {
	for _, res := range r.Results {
		if res.Result != nil && res.Result.ConflictCount() > 0 {
			return true
		}
	}
	return false
}

// HasFailures reports planning errors or failed actions.
func (r *Result) HasFailures() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
		if res.Result != nil && res.Result.FailedCount() > 0 {
			return true
		}
	}
	return false
}

// PermissionDenied reports whether any action failed on permissions.
func (r *Result) PermissionDenied() bool {
	for _, res := range r.Results {
		if res.Result != nil && res.Result.PermissionDenied {
			return true
		}
	}
	return false
}

// ScriptFailed reports whether any confirmed install script failed.
func (r *Result) ScriptFailed() bool {
	for _, res := range r.Results {
		if res.Result != nil && res.Result.Script != nil && res.Result.Script.Failed() {
			return true
		}
	}
	return false
}

// Install resolves the requested dotfiles templates and applies them.
func Install(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.install")
	logger.Debug().
		Str("repoDir", opts.RepoDir).
		Strs("templates", opts.TemplateNames).
		Bool("dryRun", opts.DryRun).
		Bool("force", opts.Force).
		Msg("Starting install command")

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	if opts.HomeDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "home directory is required")
	}

	cat := catalog.New(fs, opts.RepoDir)
	templates, err := resolveTemplates(cat, opts.TemplateNames)
	if err != nil {
		return nil, err
	}

	eng := engine.New(
		planner.New(probe.New(fs)),
		executor.New(fs, opts.Runner),
		ledger.New(fs, opts.LedgerDir),
		opts.MaxParallel,
	)

	results, err := eng.Run(ctx, engine.Request{
		Templates: templates,
		PlanOpts: planner.Options{
			Force:   opts.Force,
			HomeDir: opts.HomeDir,
		},
		ExecOpts: executor.Options{
			DryRun:           opts.DryRun,
			RunInstallScript: opts.RunScripts,
			ConfirmScript:    opts.ConfirmScript,
			ScriptTimeout:    opts.ScriptTimeout,
		},
	})
	result := &Result{Results: results, DryRun: opts.DryRun}
	if err != nil {
		return result, err
	}

	logger.Info().Int("templates", len(results)).Bool("dryRun", opts.DryRun).Msg("Install finished")
	return result, nil
}

func resolveTemplates(cat *catalog.Catalog, names []string) ([]*types.Template, error) {
	if len(names) == 0 {
		all, err := cat.List(types.ScopeDotfiles)
		if err != nil {
			return nil, err
		}
		templates := make([]*types.Template, len(all))
		for i := range all {
			templates[i] = &all[i]
		}
		return templates, nil
	}

	templates := make([]*types.Template, 0, len(names))
	for _, name := range names {
		tmpl, err := cat.Get(name, types.ScopeDotfiles)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
