// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and code inspection helpers

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/templink/templink/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "template_not_found",
			code:    errors.ErrTemplateNotFound,
			message: "no such template",
			wantStr: "[TEMPLATE_NOT_FOUND] no such template",
		},
		{
			name:    "conflict_unresolved",
			code:    errors.ErrConflictUnresolved,
			message: "target differs",
			wantStr: "[CONFLICT_UNRESOLVED] target differs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("permission denied")
	err := errors.Wrap(inner, errors.ErrMutation, "failed to replace target")

	if !stderrors.Is(err, inner) {
		t.Error("wrapped error should match errors.Is on the inner error")
	}
	if err.Error() != "[MUTATION] failed to replace target: permission denied" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if errors.Wrap(nil, errors.ErrMutation, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if errors.Wrapf(nil, errors.ErrMutation, "ignored %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Newf(errors.ErrScriptTimeout, "script %q exceeded budget", "install.sh")

	if !errors.IsErrorCode(err, errors.ErrScriptTimeout) {
		t.Error("IsErrorCode should match the original code")
	}
	if errors.IsErrorCode(err, errors.ErrScriptFailed) {
		t.Error("IsErrorCode should not match a different code")
	}

	wrapped := errors.Wrap(err, errors.ErrInternal, "outer")
	if errors.GetErrorCode(wrapped) != errors.ErrInternal {
		t.Errorf("GetErrorCode should return the outermost code, got %v", errors.GetErrorCode(wrapped))
	}
}

func TestGetErrorCodeUnknown(t *testing.T) {
	if errors.GetErrorCode(stderrors.New("plain")) != errors.ErrUnknown {
		t.Error("plain errors should map to ErrUnknown")
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrLedgerRead, "corrupt entry").
		WithDetail("template", "vim").
		WithDetail("scope", "dotfiles")

	details := errors.GetErrorDetails(err)
	if details["template"] != "vim" || details["scope"] != "dotfiles" {
		t.Errorf("details not preserved: %v", details)
	}
}
