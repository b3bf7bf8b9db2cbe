// Package script runs template install scripts through the shell with a
// hard timeout. Script effects are deliberately opaque: the engine records
// only whether the script ran and how it exited.
package script

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/types"
)

// Runner executes install scripts via "sh".
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{log: logging.GetLogger("script")}
}

// Run executes scriptPath with sh in workDir, bounded by timeout. The
// combined output is captured in the result. A non-zero exit or a timeout
// returns an error alongside a populated ScriptResult so callers can
// report the output.
func (r *Runner) Run(ctx context.Context, scriptPath, workDir string, timeout time.Duration) (types.ScriptResult, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.log.Info().Str("script", scriptPath).Str("workDir", workDir).Msg("Running install script")

	cmd := exec.CommandContext(runCtx, "sh", scriptPath)
	cmd.Dir = workDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	result := types.ScriptResult{
		ExitCode: -1,
		Output:   output.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, errors.Newf(errors.ErrScriptTimeout,
			"install script %s exceeded its %s timeout", scriptPath, timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return result, errors.Newf(errors.ErrScriptFailed,
				"install script %s exited with code %d", scriptPath, result.ExitCode)
		}
		return result, errors.Wrapf(err, errors.ErrScriptFailed,
			"failed to run install script %s", scriptPath)
	}

	r.log.Debug().Str("script", scriptPath).Msg("Install script completed")
	return result, nil
}
