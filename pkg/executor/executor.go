// Package executor applies action plans: it creates parent directories,
// writes symlinks and file copies atomically, optionally runs the
// template's install script, and reports per-action outcomes plus the
// ledger delta. It is the only component that mutates the filesystem.
package executor

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/internal/hashutil"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/types"
)

// tmpSuffix names the temporary sibling used for atomic replacement.
const tmpSuffix = ".templink-tmp"

// ScriptRunner executes a template install script. Implementations live
// outside the engine; see pkg/script.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath, workDir string, timeout time.Duration) (types.ScriptResult, error)
}

// Options control one Apply invocation.
type Options struct {
	// DryRun records planned mutations without performing them.
	DryRun bool

	// RunInstallScript runs the template's install script, if declared,
	// after the plan has been processed.
	RunInstallScript bool

	// ConfirmScript decides whether the install script may run. Nil or a
	// false return declines it. Injected so the engine stays testable
	// without terminal input.
	ConfirmScript func(scriptPath string) bool

	// ScriptTimeout bounds install script execution.
	ScriptTimeout time.Duration
}

// ScriptReport describes what happened to the install script.
type ScriptReport struct {
	Path      string
	Confirmed bool
	Result    *types.ScriptResult
	Error     string
}

// Failed reports whether the script ran and did not succeed.
func (r *ScriptReport) Failed() bool {
	if r == nil || !r.Confirmed {
		return false
	}
	if r.Error != "" {
		return true
	}
	return r.Result != nil && (r.Result.ExitCode != 0 || r.Result.TimedOut)
}

// Result aggregates one plan application.
type Result struct {
	TemplateName string
	Scope        types.Scope
	Outcomes     []types.Outcome

	// Artifacts is the ledger delta: one artifact per created,
	// overwritten, or identical outcome.
	// Failed and conflicted actions contribute nothing.
	Artifacts []types.Artifact

	Script *ScriptReport

	// PermissionDenied is set when any mutation failed with a permission
	// error, for exit-code mapping in the CLI layer.
	PermissionDenied bool
}

// FailedCount returns the number of failed or conflicted outcomes.
func (r *Result) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == types.StatusFailed || o.Status == types.StatusConflict {
			n++
		}
	}
	return n
}

// ConflictCount returns the number of conflicted outcomes.
func (r *Result) ConflictCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == types.StatusConflict {
			n++
		}
	}
	return n
}

// Executor applies plans through a types.FS.
type Executor struct {
	fs      types.FS
	scripts ScriptRunner
	log     zerolog.Logger
}

// New creates an Executor. scripts may be nil when install scripts are
// never run.
func New(fs types.FS, scripts ScriptRunner) *Executor {
	return &Executor{
		fs:      fs,
		scripts: scripts,
		log:     logging.GetLogger("executor"),
	}
}

// Apply processes the plan's actions in order. Per-entry failures never
// abort sibling entries; the aggregate result reports them and the caller
// decides overall success. The returned error is non-nil only for
// cancellation, honored between actions — an in-flight mutation always
// completes or cleanly fails first.
func (e *Executor) Apply(ctx context.Context, plan *types.Plan, opts Options) (*Result, error) {
	result := &Result{
		TemplateName: plan.Template.Name,
		Scope:        plan.Template.Scope,
	}

	done := logging.LogOperationStart(e.log, "apply "+plan.Template.Name)
	defer done()

	cancelled := false
	for _, action := range plan.Actions {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
		}
		if cancelled {
			result.Outcomes = append(result.Outcomes, types.Outcome{
				Action: action,
				Status: types.StatusCancelled,
			})
			continue
		}

		outcome, mutationErr := e.applyAction(action, opts)
		if mutationErr != nil && stderrors.Is(mutationErr, fs.ErrPermission) {
			result.PermissionDenied = true
		}

		if !opts.DryRun && recordsArtifact(outcome.Status) {
			artifact, err := e.buildArtifact(action, plan.Template.Scope)
			if err != nil {
				// The desired state holds on disk but the artifact could
				// not be described; downgrade to failed so the ledger
				// never records something unverified.
				outcome.Status = types.StatusFailed
				outcome.Error = err.Error()
			} else {
				result.Artifacts = append(result.Artifacts, artifact)
			}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if cancelled {
		return result, ctx.Err()
	}

	e.runInstallScript(ctx, plan, opts, result)
	return result, nil
}

// recordsArtifact reports which outcomes contribute to the ledger delta.
// Identical targets are included: a target that already matches the
// template is in the desired state and must be tracked, even when the
// run that found it never touched the disk.
func recordsArtifact(status types.OutcomeStatus) bool {
	switch status {
	case types.StatusCreated, types.StatusOverwritten, types.StatusIdentical:
		return true
	}
	return false
}

func (e *Executor) applyAction(action types.Action, opts Options) (types.Outcome, error) {
	outcome := types.Outcome{Action: action}

	switch action.Kind {
	case types.ActionSkipIdentical:
		outcome.Status = types.StatusIdentical

	case types.ActionConflict:
		outcome.Status = types.StatusConflict
		outcome.Error = conflictMessage(action)

	case types.ActionCreateLink, types.ActionOverwriteLink:
		if opts.DryRun {
			outcome.Status = types.StatusDryRun
			return outcome, nil
		}
		if err := e.replaceWithLink(action.Source, action.Target); err != nil {
			e.log.Error().Err(err).Str("target", action.Target).Msg("Link creation failed")
			outcome.Status = types.StatusFailed
			outcome.Error = err.Error()
			return outcome, err
		}
		outcome.Status = createdOrOverwritten(action.Kind)

	case types.ActionCreateCopy, types.ActionOverwriteCopy:
		if opts.DryRun {
			outcome.Status = types.StatusDryRun
			return outcome, nil
		}
		if err := e.replaceWithCopy(action.Source, action.Target); err != nil {
			e.log.Error().Err(err).Str("target", action.Target).Msg("Copy failed")
			outcome.Status = types.StatusFailed
			outcome.Error = err.Error()
			return outcome, err
		}
		outcome.Status = createdOrOverwritten(action.Kind)

	default:
		outcome.Status = types.StatusFailed
		outcome.Error = "unknown action kind " + string(action.Kind)
	}

	return outcome, nil
}

// replaceWithLink creates or atomically replaces a symlink at target.
// The link is created at a temporary sibling and renamed over the target,
// so an existing target is never observed half-replaced.
func (e *Executor) replaceWithLink(source, target string) error {
	if err := e.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent directory for %s", target)
	}

	tmp := target + tmpSuffix
	_ = e.fs.Remove(tmp)
	if err := e.fs.Symlink(source, tmp); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to create symlink for %s", target)
	}
	if err := e.fs.Rename(tmp, target); err != nil {
		_ = e.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to move symlink into place at %s", target)
	}
	return nil
}

// replaceWithCopy writes source's bytes to a temporary sibling and renames
// it over the target. On any failure the original target is left untouched.
func (e *Executor) replaceWithCopy(source, target string) error {
	data, err := e.fs.ReadFile(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopyWrite, "failed to read source %s", source)
	}
	info, err := e.fs.Stat(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopyWrite, "failed to stat source %s", source)
	}

	if err := e.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent directory for %s", target)
	}

	tmp := target + tmpSuffix
	if err := e.fs.WriteFile(tmp, data, info.Mode().Perm()); err != nil {
		_ = e.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrCopyWrite, "failed to write %s", tmp)
	}
	if err := e.fs.Rename(tmp, target); err != nil {
		_ = e.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrCopyWrite, "failed to move copy into place at %s", target)
	}
	return nil
}

// buildArtifact describes a successful outcome for the ledger.
func (e *Executor) buildArtifact(action types.Action, scope types.Scope) (types.Artifact, error) {
	artifact := types.Artifact{
		TargetPath: action.Target,
		SourcePath: action.Source,
		CreatedAt:  time.Now().UTC(),
	}

	if scope == types.ScopeDotfiles {
		artifact.Origin = types.OriginLink
		return artifact, nil
	}

	artifact.Origin = types.OriginCopy
	data, err := e.fs.ReadFile(action.Source)
	if err != nil {
		return artifact, errors.Wrapf(err, errors.ErrMutation, "failed to checksum %s", action.Source)
	}
	artifact.Checksum = hashutil.ChecksumBytes(data)
	return artifact, nil
}

func (e *Executor) runInstallScript(ctx context.Context, plan *types.Plan, opts Options, result *Result) {
	if !opts.RunInstallScript || !plan.Template.HasInstallScript() || opts.DryRun {
		return
	}

	report := &ScriptReport{Path: plan.Template.InstallScript}
	result.Script = report

	if opts.ConfirmScript == nil || !opts.ConfirmScript(plan.Template.InstallScript) {
		e.log.Info().Str("script", plan.Template.InstallScript).Msg("Install script declined")
		return
	}
	report.Confirmed = true

	if e.scripts == nil {
		report.Error = "no script runner configured"
		return
	}

	scriptResult, err := e.scripts.Run(ctx, plan.Template.InstallScript, plan.Root, opts.ScriptTimeout)
	report.Result = &scriptResult
	if err != nil {
		// Script failure is reported but never undoes applied artifacts.
		report.Error = err.Error()
		e.log.Error().Err(err).Str("script", plan.Template.InstallScript).Msg("Install script failed")
		return
	}
	e.log.Info().
		Str("script", plan.Template.InstallScript).
		Int("exit_code", scriptResult.ExitCode).
		Msg("Install script finished")
}

func createdOrOverwritten(kind types.ActionKind) types.OutcomeStatus {
	if kind == types.ActionOverwriteLink || kind == types.ActionOverwriteCopy {
		return types.StatusOverwritten
	}
	return types.StatusCreated
}

func conflictMessage(action types.Action) string {
	switch action.Reason {
	case types.ConflictContentDiffers:
		return "target content differs from template source"
	case types.ConflictTypeDiffers:
		return "target exists with a different type"
	case types.ConflictIsDirectory:
		return "target is a directory and will never be overwritten"
	case types.ConflictLinkElsewhere:
		return "target is a symlink pointing elsewhere"
	case types.ConflictUnreadable:
		return "target could not be inspected"
	}
	return "unresolved conflict"
}
