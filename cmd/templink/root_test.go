package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templink/templink/pkg/errors"
)

func TestNewRootCmd_HasExpectedCommands(t *testing.T) {
	root := NewRootCmd()

	expected := []string{"install", "apply", "list", "status", "sync", "uninstall", "config", "version"}
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, names[name], "missing command %q", name)
	}
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()

	for _, flag := range []string{"verbose", "dry-run", "force", "repo"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no error", nil, ExitOK},
		{"template not found", errors.New(errors.ErrTemplateNotFound, "x"), ExitTemplateNotFound},
		{"catalog missing", errors.New(errors.ErrCatalogMissing, "x"), ExitTemplateNotFound},
		{"conflicts", errors.New(errors.ErrConflictUnresolved, "x"), ExitConflicts},
		{"permission", errors.New(errors.ErrPermission, "x"), ExitPermissionDenied},
		{"script failed", errors.New(errors.ErrScriptFailed, "x"), ExitScriptFailed},
		{"script timeout", errors.New(errors.ErrScriptTimeout, "x"), ExitScriptFailed},
		{"anything else", errors.New(errors.ErrConfigLoad, "x"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestVersionCmdOutput(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "templink version")
}
