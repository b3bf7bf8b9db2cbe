// Package testutil provides isolated test environments: a template
// repository tree, a fake home, and state directories, all under a temp
// dir with the relevant environment variables pointed at them.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/templink/templink/pkg/paths"
	"github.com/templink/templink/pkg/types"
)

// Environment is a fully isolated on-disk fixture for one test.
type Environment struct {
	// RepoDir is the template repository root, containing dotfiles/ and
	// projects/ subdirectories.
	RepoDir string

	// HomeDir stands in for the user's home directory.
	HomeDir string

	// TargetDir is a scratch directory for project-scope applications.
	TargetDir string

	// StateDir backs the ledger and sync markers.
	StateDir string

	t *testing.T
}

// NewEnvironment creates an isolated environment rooted in t.TempDir and
// points TEMPLINK_* environment variables at it, so paths.New resolves
// inside the fixture.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	root := t.TempDir()
	env := &Environment{
		RepoDir:   filepath.Join(root, "repo"),
		HomeDir:   filepath.Join(root, "home"),
		TargetDir: filepath.Join(root, "target"),
		StateDir:  filepath.Join(root, "state"),
		t:         t,
	}

	for _, dir := range []string{env.RepoDir, env.HomeDir, env.TargetDir, env.StateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("TEMPLINK_HOME", env.HomeDir)
	t.Setenv("TEMPLINK_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("TEMPLINK_CONFIG_DIR", filepath.Join(root, "config"))
	t.Setenv("TEMPLINK_STATE_DIR", env.StateDir)

	return env
}

// AddTemplate writes a template under RepoDir with the given files, keyed
// by path relative to the template root. Parent directories are created as
// needed.
func (e *Environment) AddTemplate(name string, scope types.Scope, files map[string]string) string {
	e.t.Helper()

	dir := filepath.Join(e.RepoDir, scope.Dir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("failed to create template dir %s: %v", dir, err)
	}
	for rel, content := range files {
		e.WriteFile(filepath.Join(dir, rel), content)
	}
	return dir
}

// AddInstallScript writes an executable install.sh into an existing
// template directory.
func (e *Environment) AddInstallScript(name string, scope types.Scope, body string) string {
	e.t.Helper()

	path := filepath.Join(e.RepoDir, scope.Dir(), name, paths.InstallScriptName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatalf("failed to create template dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		e.t.Fatalf("failed to write install script: %v", err)
	}
	return path
}

// WriteFile writes content at path, creating parent directories.
func (e *Environment) WriteFile(path, content string) {
	e.t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path, failing the test on error.
func (e *Environment) ReadFile(path string) string {
	e.t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		e.t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// HomePath joins rel onto the fixture home directory.
func (e *Environment) HomePath(rel string) string {
	return filepath.Join(e.HomeDir, rel)
}

// TargetPath joins rel onto the fixture target directory.
func (e *Environment) TargetPath(rel string) string {
	return filepath.Join(e.TargetDir, rel)
}
