// Package planner reconciles a template's manifest against live filesystem
// state and computes an ordered action plan. The planner is a pure
// function over probe results: it performs no writes, and dry-run is
// purely a consumption choice made by the caller.
package planner

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/probe"
	"github.com/templink/templink/pkg/types"
)

// Options control target mapping and conflict resolution semantics.
type Options struct {
	// Force resolves overwritable conflicts into overwrite actions.
	// Directories are never overwritable.
	Force bool

	// HomeDir is the application root for dotfiles templates.
	HomeDir string

	// TargetDir is the application root for project templates.
	TargetDir string
}

// Planner computes plans from probe results.
type Planner struct {
	prober *probe.Prober
	log    zerolog.Logger
}

// New creates a Planner that inspects targets through prober.
func New(prober *probe.Prober) *Planner {
	return &Planner{
		prober: prober,
		log:    logging.GetLogger("planner"),
	}
}

// ResolveRoot returns the directory a template's relative paths map into.
func ResolveRoot(t *types.Template, opts Options) (string, error) {
	switch t.Scope {
	case types.ScopeDotfiles:
		if opts.HomeDir == "" {
			return "", errors.New(errors.ErrInvalidInput, "home directory not set for dotfiles template")
		}
		return opts.HomeDir, nil
	case types.ScopeProject:
		if opts.TargetDir == "" {
			return "", errors.New(errors.ErrInvalidInput, "target directory not set for project template")
		}
		return opts.TargetDir, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unknown scope %q", t.Scope)
}

// Plan computes one action per manifest entry, in manifest order.
// Unreadable targets become per-entry conflicts rather than failing the
// whole plan.
func (p *Planner) Plan(t *types.Template, opts Options) (*types.Plan, error) {
	root, err := ResolveRoot(t, opts)
	if err != nil {
		return nil, err
	}

	plan := &types.Plan{
		Template: t,
		Root:     root,
		Force:    opts.Force,
		Actions:  make([]types.Action, 0, len(t.Manifest)),
	}

	for _, entry := range t.Manifest {
		source := t.SourcePath(entry)
		target := filepath.Join(root, filepath.FromSlash(entry.RelPath))

		state, err := p.prober.Inspect(target)
		if err != nil {
			p.log.Warn().Err(err).Str("target", target).Msg("Target unreadable, planning conflict")
			plan.Actions = append(plan.Actions, types.Action{
				Kind:   types.ActionConflict,
				Source: source,
				Target: target,
				Reason: types.ConflictUnreadable,
			})
			continue
		}

		var action types.Action
		if t.Scope == types.ScopeDotfiles {
			action = p.planLink(source, target, state, opts.Force)
		} else {
			action = p.planCopy(source, target, state, opts.Force)
		}
		plan.Actions = append(plan.Actions, action)
	}

	p.log.Debug().
		Str("template", t.Name).
		Str("scope", string(t.Scope)).
		Int("actions", len(plan.Actions)).
		Int("conflicts", len(plan.Conflicts())).
		Bool("force", opts.Force).
		Msg("Plan computed")

	return plan, nil
}

// planLink decides the action for a dotfiles entry, where the desired
// state is a symlink at target pointing to source.
func (p *Planner) planLink(source, target string, state *probe.State, force bool) types.Action {
	a := types.Action{Source: source, Target: target}

	switch state.Kind {
	case probe.Absent:
		a.Kind = types.ActionCreateLink

	case probe.Symlink:
		if linkPointsTo(target, state.LinkTarget, source) {
			a.Kind = types.ActionSkipIdentical
			return a
		}
		if force {
			a.Kind = types.ActionOverwriteLink
		} else {
			a.Kind = types.ActionConflict
			a.Reason = types.ConflictLinkElsewhere
		}

	case probe.RegularFile:
		if force {
			a.Kind = types.ActionOverwriteLink
		} else {
			a.Kind = types.ActionConflict
			a.Reason = types.ConflictTypeDiffers
		}

	case probe.Directory:
		// Collapsing a directory into a symlink is almost certainly
		// unintended; force does not apply here.
		a.Kind = types.ActionConflict
		a.Reason = types.ConflictIsDirectory

	default:
		a.Kind = types.ActionConflict
		a.Reason = types.ConflictTypeDiffers
	}

	return a
}

// planCopy decides the action for a project entry, where the desired state
// is a regular file at target with source's content.
func (p *Planner) planCopy(source, target string, state *probe.State, force bool) types.Action {
	a := types.Action{Source: source, Target: target}

	switch state.Kind {
	case probe.Absent:
		a.Kind = types.ActionCreateCopy

	case probe.RegularFile:
		same, err := p.sameContent(source, state)
		if err != nil {
			a.Kind = types.ActionConflict
			a.Reason = types.ConflictUnreadable
			return a
		}
		if same {
			a.Kind = types.ActionSkipIdentical
			return a
		}
		if force {
			a.Kind = types.ActionOverwriteCopy
		} else {
			a.Kind = types.ActionConflict
			a.Reason = types.ConflictContentDiffers
		}

	case probe.Symlink:
		if force {
			a.Kind = types.ActionOverwriteCopy
		} else {
			a.Kind = types.ActionConflict
			a.Reason = types.ConflictTypeDiffers
		}

	case probe.Directory:
		a.Kind = types.ActionConflict
		a.Reason = types.ConflictIsDirectory

	default:
		a.Kind = types.ActionConflict
		a.Reason = types.ConflictTypeDiffers
	}

	return a
}

func (p *Planner) sameContent(source string, target *probe.State) (bool, error) {
	sourceSum, err := p.prober.ChecksumFile(source)
	if err != nil {
		return false, err
	}
	targetSum, err := target.Checksum()
	if err != nil {
		return false, err
	}
	return sourceSum == targetSum, nil
}

// linkPointsTo reports whether an existing symlink already points at the
// desired source, resolving relative link targets against the link's
// directory.
func linkPointsTo(linkPath, linkTarget, source string) bool {
	if linkTarget == source {
		return true
	}
	resolved := linkTarget
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(linkPath), resolved)
	}
	return filepath.Clean(resolved) == filepath.Clean(source)
}
