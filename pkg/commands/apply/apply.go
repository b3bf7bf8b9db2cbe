// Package apply implements the apply command: materialize one project
// template into a target directory as independent file copies.
package apply

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

// Options defines the options for the Apply command.
type Options struct {
	// RepoDir is the template repository root.
	RepoDir string

	// TemplateName is the project template to apply. Required.
	TemplateName string

	// TargetDir receives the copied files. Required.
	TargetDir string

	// LedgerDir backs application records.
	LedgerDir string

	DryRun bool
	Force  bool

	RunScripts    bool
	ConfirmScript func(scriptPath string) bool
	ScriptTimeout time.Duration

	// Runner executes install scripts. Nil disables script execution.
	Runner executor.ScriptRunner

	// FS overrides the filesystem, for tests. Nil means the OS.
	FS types.FS
}

// Result is the outcome of applying one project template.
type Result struct {
	Template *types.Template
	Run      *engine.TemplateResult
	DryRun   bool
}

// HasConflicts reports unresolved conflicts.
func (r *Result) HasConflicts() bool {
	return r.Run.Result != nil && r.Run.Result.ConflictCount() > 0
}

// HasFailures reports failed actions.
func (r *Result) HasFailures() bool {
	if r.Run.Err != nil {
		return true
	}
	return r.Run.Result != nil && r.Run.Result.FailedCount() > 0
}

// PermissionDenied reports whether any action failed on permissions.
func (r *Result) PermissionDenied() bool {
	return r.Run.Result != nil && r.Run.Result.PermissionDenied
}

// ScriptFailed reports whether the confirmed install script failed.
func (r *Result) ScriptFailed() bool {
	return r.Run.Result != nil && r.Run.Result.Script != nil && r.Run.Result.Script.Failed()
}

// Apply scaffolds one project template into the target directory.
func Apply(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.apply")
	logger.Debug().
		Str("template", opts.TemplateName).
		Str("targetDir", opts.TargetDir).
		Bool("dryRun", opts.DryRun).
		Bool("force", opts.Force).
		Msg("Starting apply command")

	if opts.TemplateName == "" {
		return nil, errors.New(errors.ErrInvalidInput, "template name is required")
	}
	if opts.TargetDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "target directory is required")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	tmpl, err := catalog.New(fs, opts.RepoDir).Get(opts.TemplateName, types.ScopeProject)
	if err != nil {
		return nil, err
	}

	eng := engine.New(
		planner.New(probe.New(fs)),
		executor.New(fs, opts.Runner),
		ledger.New(fs, opts.LedgerDir),
		1,
	)

	results, err := eng.Run(ctx, engine.Request{
		Templates: []*types.Template{tmpl},
		PlanOpts: planner.Options{
			Force:     opts.Force,
			TargetDir: opts.TargetDir,
		},
		ExecOpts: executor.Options{
			DryRun:           opts.DryRun,
			RunInstallScript: opts.RunScripts,
			ConfirmScript:    opts.ConfirmScript,
			ScriptTimeout:    opts.ScriptTimeout,
		},
	})

	result := &Result{Template: tmpl, Run: results[0], DryRun: opts.DryRun}
	if err != nil {
		return result, err
	}
	if results[0].Err != nil {
		return result, results[0].Err
	}

	logger.Info().Str("template", tmpl.Name).Bool("dryRun", opts.DryRun).Msg("Apply finished")
	return result, nil
}
