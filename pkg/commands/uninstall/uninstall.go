// Package uninstall implements the uninstall command: remove the
// artifacts a template's ledger entry records, then drop the entry.
// Targets the user has changed since application are preserved unless
// forced.
package uninstall

import (
	"github.com/templink/templink/pkg/commands/status"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/ledger"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/probe"
	"github.com/templink/templink/pkg/types"
)

// Options defines the options for the Uninstall command.
type Options struct {
	// TemplateName is the template to uninstall. Required.
	TemplateName string

	// Scope of the recorded entry. Empty tries dotfiles, then project.
	Scope types.Scope

	// LedgerDir holds application records.
	LedgerDir string

	DryRun bool

	// Force removes modified targets too. Missing targets are always
	// fine; intact targets are always removed.
	Force bool

	// FS overrides the filesystem, for tests. Nil means the OS.
	FS types.FS
}

// RemovalState describes what happened to one recorded artifact.
type RemovalState string

const (
	RemovedOK      RemovalState = "removed"
	RemovalSkipped RemovalState = "skipped-modified"
	AlreadyGone    RemovalState = "already-gone"
	RemovalDryRun  RemovalState = "dry-run"
	RemovalFailed  RemovalState = "failed"
)

// Removal is the per-artifact outcome.
type Removal struct {
	Artifact types.Artifact
	State    RemovalState
	Detail   string
}

// Result reports the uninstall outcome. The ledger entry is dropped only
// when every artifact was removed or already gone.
type Result struct {
	TemplateName string
	Scope        types.Scope
	Removals     []Removal
	EntryDropped bool
	DryRun       bool
}

// SkippedCount returns how many artifacts were preserved as modified.
func (r *Result) SkippedCount() int {
	n := 0
	for _, rem := range r.Removals {
		if rem.State == RemovalSkipped {
			n++
		}
	}
	return n
}

// Uninstall removes a template's recorded artifacts.
func Uninstall(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.uninstall")
	logger.Debug().
		Str("template", opts.TemplateName).
		Bool("dryRun", opts.DryRun).
		Bool("force", opts.Force).
		Msg("Starting uninstall command")

	if opts.TemplateName == "" {
		return nil, errors.New(errors.ErrInvalidInput, "template name is required")
	}

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}
	led := ledger.New(fs, opts.LedgerDir)

	entry, scope, err := findEntry(led, opts.TemplateName, opts.Scope)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TemplateName: opts.TemplateName,
		Scope:        scope,
		DryRun:       opts.DryRun,
	}

	prober := probe.New(fs)
	clean := true
	for _, artifact := range entry.Artifacts {
		removal := removeArtifact(fs, prober, artifact, opts)
		if removal.State == RemovalSkipped || removal.State == RemovalFailed {
			clean = false
		}
		result.Removals = append(result.Removals, removal)
	}

	if opts.DryRun {
		return result, nil
	}

	if clean {
		if err := led.Remove(opts.TemplateName, scope); err != nil {
			return result, err
		}
		result.EntryDropped = true
	} else {
		logger.Info().Str("template", opts.TemplateName).
			Msg("Some artifacts were preserved, keeping ledger entry")
	}

	return result, nil
}

func findEntry(led *ledger.Ledger, name string, scope types.Scope) (*types.LedgerEntry, types.Scope, error) {
	scopes := []types.Scope{types.ScopeDotfiles, types.ScopeProject}
	if scope != "" {
		scopes = []types.Scope{scope}
	}

	for _, s := range scopes {
		entry, err := led.Load(name, s)
		if err != nil {
			return nil, "", err
		}
		if entry != nil {
			return entry, s, nil
		}
	}
	return nil, "", errors.Newf(errors.ErrTemplateNotFound, "no ledger entry for template %q", name)
}

func removeArtifact(fs types.FS, prober *probe.Prober, artifact types.Artifact, opts Options) Removal {
	removal := Removal{Artifact: artifact}

	st := status.Classify(prober, artifact)
	switch st.State {
	case types.ArtifactMissing:
		removal.State = AlreadyGone
		return removal
	case types.ArtifactModified:
		if !opts.Force {
			removal.State = RemovalSkipped
			removal.Detail = st.Detail
			return removal
		}
	}

	if opts.DryRun {
		removal.State = RemovalDryRun
		return removal
	}

	if err := fs.Remove(artifact.TargetPath); err != nil {
		removal.State = RemovalFailed
		removal.Detail = err.Error()
		return removal
	}
	removal.State = RemovedOK
	return removal
}
