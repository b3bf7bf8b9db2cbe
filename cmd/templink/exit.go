package main

import (
	"github.com/templink/templink/pkg/commands/apply"
	"github.com/templink/templink/pkg/commands/install"
	"github.com/templink/templink/pkg/errors"
)

// Exit codes. Scripts depend on these staying stable.
const (
	ExitOK               = 0
	ExitGeneralError     = 1
	ExitTemplateNotFound = 2
	ExitConflicts        = 3
	ExitPermissionDenied = 4
	ExitScriptFailed     = 5
)

// installExitError converts an install result into the coded error the
// exit-code mapping understands, or nil when everything succeeded.
func installExitError(result *install.Result) error {
	switch {
	case result.PermissionDenied():
		return errors.New(errors.ErrPermission, "some targets could not be written, check permissions")
	case result.HasConflicts():
		return errors.New(errors.ErrConflictUnresolved, MsgConflictHint)
	case result.ScriptFailed():
		return errors.New(errors.ErrScriptFailed, "an install script failed, see output above")
	case result.HasFailures():
		return errors.New(errors.ErrMutation, "some actions failed, see output above")
	}
	return nil
}

func applyExitError(result *apply.Result) error {
	switch {
	case result.PermissionDenied():
		return errors.New(errors.ErrPermission, "some targets could not be written, check permissions")
	case result.HasConflicts():
		return errors.New(errors.ErrConflictUnresolved, MsgConflictHint)
	case result.ScriptFailed():
		return errors.New(errors.ErrScriptFailed, "the install script failed, see output above")
	case result.HasFailures():
		return errors.New(errors.ErrMutation, "some actions failed, see output above")
	}
	return nil
}

// exitCode maps command errors onto the documented exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch errors.GetErrorCode(err) {
	case errors.ErrTemplateNotFound, errors.ErrCatalogMissing:
		return ExitTemplateNotFound
	case errors.ErrConflictUnresolved:
		return ExitConflicts
	case errors.ErrPermission:
		return ExitPermissionDenied
	case errors.ErrScriptFailed, errors.ErrScriptTimeout:
		return ExitScriptFailed
	}
	return ExitGeneralError
}
