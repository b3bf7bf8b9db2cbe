package types

// ActionKind identifies what the executor will do for one manifest entry.
type ActionKind string

const (
	ActionCreateLink    ActionKind = "create-link"
	ActionCreateCopy    ActionKind = "create-copy"
	ActionSkipIdentical ActionKind = "skip-identical"
	ActionConflict      ActionKind = "conflict"
	ActionOverwriteLink ActionKind = "overwrite-link"
	ActionOverwriteCopy ActionKind = "overwrite-copy"
)

// Mutates reports whether the action kind writes to the filesystem.
func (k ActionKind) Mutates() bool {
	switch k {
	case ActionCreateLink, ActionCreateCopy, ActionOverwriteLink, ActionOverwriteCopy:
		return true
	}
	return false
}

// ConflictReason explains why a target could not be reconciled, so the
// operator can decide to inspect, back up, or re-run with force.
type ConflictReason string

const (
	// ConflictContentDiffers - target is a regular file whose content
	// differs from the template source.
	ConflictContentDiffers ConflictReason = "content-differs"

	// ConflictTypeDiffers - target exists but is not the desired type
	// (e.g. a regular file where a symlink is wanted, or a socket).
	ConflictTypeDiffers ConflictReason = "type-differs"

	// ConflictIsDirectory - target is a directory. Never overwritten,
	// even with force.
	ConflictIsDirectory ConflictReason = "is-directory"

	// ConflictLinkElsewhere - target is a symlink pointing somewhere other
	// than this template's source, or a dangling symlink.
	ConflictLinkElsewhere ConflictReason = "link-elsewhere"

	// ConflictUnreadable - the target could not be probed (permissions).
	ConflictUnreadable ConflictReason = "unreadable"
)

// Action is one planned operation for one manifest entry. Produced only by
// the planner, never persisted.
type Action struct {
	Kind ActionKind

	// Source is the absolute path of the template source file.
	Source string

	// Target is the absolute path the action applies to.
	Target string

	// Reason is set for conflict actions only.
	Reason ConflictReason
}

// Plan is the ordered list of actions computed by reconciling a template's
// manifest against live filesystem state. Action order follows manifest
// order so output is deterministic across runs.
type Plan struct {
	Template *Template

	// Root is the resolved application root: the home directory for
	// dotfiles scope, the target directory for project scope.
	Root string

	// Force records the semantics the plan was computed under. The
	// executor never reinterprets conflicts itself.
	Force bool

	Actions []Action
}

// TargetPaths returns the set of absolute target paths this plan touches.
// Used to detect overlap between templates applied in one invocation.
func (p *Plan) TargetPaths() map[string]struct{} {
	paths := make(map[string]struct{}, len(p.Actions))
	for _, a := range p.Actions {
		paths[a.Target] = struct{}{}
	}
	return paths
}

// Conflicts returns the conflict actions in plan order.
func (p *Plan) Conflicts() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Kind == ActionConflict {
			out = append(out, a)
		}
	}
	return out
}
