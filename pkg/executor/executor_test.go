package executor_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templink/templink/pkg/catalog"
	"github.com/templink/templink/pkg/executor"
	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/planner"
	"github.com/templink/templink/pkg/probe"
	"github.com/templink/templink/pkg/testutil"
	"github.com/templink/templink/pkg/types"
)

type stubRunner struct {
	result types.ScriptResult
	err    error
	calls  int
	lastWD string
}

func (s *stubRunner) Run(_ context.Context, _ string, workDir string, _ time.Duration) (types.ScriptResult, error) {
	s.calls++
	s.lastWD = workDir
	return s.result, s.err
}

func planFor(t *testing.T, env *testutil.Environment, name string, scope types.Scope, force bool) *types.Plan {
	t.Helper()
	tmpl, err := catalog.New(filesystem.NewOS(), env.RepoDir).Get(name, scope)
	require.NoError(t, err)
	plan, err := planner.New(probe.New(filesystem.NewOS())).Plan(tmpl, planner.Options{
		Force:     force,
		HomeDir:   env.HomeDir,
		TargetDir: env.TargetDir,
	})
	require.NoError(t, err)
	return plan
}

func TestApply_CreatesLinks(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "set number\n"})
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusCreated, result.Outcomes[0].Status)

	link, err := os.Readlink(env.HomePath(".vimrc"))
	require.NoError(t, err)
	assert.Equal(t, plan.Actions[0].Source, link)

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, types.OriginLink, result.Artifacts[0].Origin)
	assert.Empty(t, result.Artifacts[0].Checksum, "link artifacts carry no checksum")
}

func TestApply_CreatesCopiesWithChecksum(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"pyproject.toml": "[project]\n"})
	plan := planFor(t, env, "proj", types.ScopeProject, false)

	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	assert.Equal(t, "[project]\n", env.ReadFile(env.TargetPath("pyproject.toml")))

	info, err := os.Lstat(env.TargetPath("pyproject.toml"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "project scope produces real files, not links")

	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, types.OriginCopy, result.Artifacts[0].Origin)
	assert.Contains(t, result.Artifacts[0].Checksum, "sha256:")
}

func TestApply_Idempotent(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})

	exec := executor.New(filesystem.NewOS(), nil)
	_, err := exec.Apply(context.Background(), planFor(t, env, "vim", types.ScopeDotfiles, false), executor.Options{})
	require.NoError(t, err)

	// Second run replans against the new state and must be all no-ops.
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusIdentical, result.Outcomes[0].Status)
	require.Len(t, result.Artifacts, 1, "identical targets still refresh the ledger")
	assert.Equal(t, env.HomePath(".vimrc"), result.Artifacts[0].TargetPath)
}

func TestApply_IdenticalCopyCarriesChecksum(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"Makefile": "all:\n"})
	env.WriteFile(env.TargetPath("Makefile"), "all:\n")

	plan := planFor(t, env, "proj", types.ScopeProject, false)
	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusIdentical, result.Outcomes[0].Status)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, types.OriginCopy, result.Artifacts[0].Origin)
	assert.Contains(t, result.Artifacts[0].Checksum, "sha256:")
}

func TestApply_ConflictNeverMutatesWithoutForce(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "template"})
	env.WriteFile(env.HomePath(".vimrc"), "precious user data")

	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)
	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ConflictCount())
	assert.Equal(t, "precious user data", env.ReadFile(env.HomePath(".vimrc")),
		"a conflict must leave the target byte-for-byte untouched")
}

func TestApply_ForceOverwrites(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"Makefile": "all:\n"})
	env.WriteFile(env.TargetPath("Makefile"), "old contents")

	plan := planFor(t, env, "proj", types.ScopeProject, true)
	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusOverwritten, result.Outcomes[0].Status)
	assert.Equal(t, "all:\n", env.ReadFile(env.TargetPath("Makefile")))
}

func TestApply_DryRunWritesNothing(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x", ".gvimrc": "y"})
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{DryRun: true})
	require.NoError(t, err)

	for _, o := range result.Outcomes {
		assert.Equal(t, types.StatusDryRun, o.Status)
	}
	assert.Empty(t, result.Artifacts)

	entries, err := os.ReadDir(env.HomeDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry-run must not touch the filesystem")
}

func TestApply_PartialFailureIsolation(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("shell", types.ScopeDotfiles, map[string]string{
		".bashrc":  "a",
		".profile": "b",
		".zshrc":   "c",
	})
	// A directory in the way of .profile conflicts; the siblings must
	// still be applied.
	require.NoError(t, os.MkdirAll(env.HomePath(".profile"), 0755))

	plan := planFor(t, env, "shell", types.ScopeDotfiles, false)
	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ConflictCount())
	assert.Len(t, result.Artifacts, 2)

	for _, rel := range []string{".bashrc", ".zshrc"} {
		_, err := os.Readlink(env.HomePath(rel))
		assert.NoError(t, err, "sibling %s should have been linked", rel)
	}
}

func TestApply_OverwriteLeavesNoTempFiles(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"config.ini": "new"})
	env.WriteFile(env.TargetPath("config.ini"), "old")

	plan := planFor(t, env, "proj", types.ScopeProject, true)
	exec := executor.New(filesystem.NewOS(), nil)
	_, err := exec.Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	entries, err := os.ReadDir(env.TargetDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.ini", entries[0].Name())
}

func TestApply_CancelledContextMarksRemaining(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := executor.New(filesystem.NewOS(), nil)
	result, err := exec.Apply(ctx, plan, executor.Options{})
	require.Error(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusCancelled, result.Outcomes[0].Status)

	_, statErr := os.Lstat(env.HomePath(".vimrc"))
	assert.True(t, os.IsNotExist(statErr), "cancelled actions must not mutate")
}

func TestApply_InstallScriptRunsAfterConfirmation(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	env.AddInstallScript("vim", types.ScopeDotfiles, "#!/bin/sh\ntrue\n")
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	runner := &stubRunner{result: types.ScriptResult{ExitCode: 0}}
	exec := executor.New(filesystem.NewOS(), runner)
	result, err := exec.Apply(context.Background(), plan, executor.Options{
		RunInstallScript: true,
		ConfirmScript:    func(string) bool { return true },
		ScriptTimeout:    time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, env.HomeDir, runner.lastWD, "dotfiles scripts run in the home directory")
	require.NotNil(t, result.Script)
	assert.True(t, result.Script.Confirmed)
	assert.False(t, result.Script.Failed())
}

func TestApply_InstallScriptDeclined(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	env.AddInstallScript("vim", types.ScopeDotfiles, "#!/bin/sh\ntrue\n")
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	runner := &stubRunner{}
	exec := executor.New(filesystem.NewOS(), runner)
	result, err := exec.Apply(context.Background(), plan, executor.Options{
		RunInstallScript: true,
		ConfirmScript:    func(string) bool { return false },
	})
	require.NoError(t, err)

	assert.Equal(t, 0, runner.calls)
	require.NotNil(t, result.Script)
	assert.False(t, result.Script.Confirmed)
	assert.Len(t, result.Artifacts, 1, "declining the script never undoes file actions")
}

func TestApply_InstallScriptFailureKeepsArtifacts(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	env.AddInstallScript("vim", types.ScopeDotfiles, "#!/bin/sh\nexit 1\n")
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	runner := &stubRunner{
		result: types.ScriptResult{ExitCode: 1, Output: "boom"},
		err:    assert.AnError,
	}
	exec := executor.New(filesystem.NewOS(), runner)
	result, err := exec.Apply(context.Background(), plan, executor.Options{
		RunInstallScript: true,
		ConfirmScript:    func(string) bool { return true },
	})
	require.NoError(t, err, "script failure is reported via the result, not the error")

	require.NotNil(t, result.Script)
	assert.True(t, result.Script.Failed())
	assert.Len(t, result.Artifacts, 1)

	_, linkErr := os.Readlink(env.HomePath(".vimrc"))
	assert.NoError(t, linkErr, "completed file actions stay in place")
}

func TestApply_NoScriptRunOnDryRun(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})
	env.AddInstallScript("vim", types.ScopeDotfiles, "#!/bin/sh\ntrue\n")
	plan := planFor(t, env, "vim", types.ScopeDotfiles, false)

	runner := &stubRunner{}
	exec := executor.New(filesystem.NewOS(), runner)
	result, err := exec.Apply(context.Background(), plan, executor.Options{
		DryRun:           true,
		RunInstallScript: true,
		ConfirmScript:    func(string) bool { return true },
	})
	require.NoError(t, err)
	assert.Equal(t, 0, runner.calls)
	assert.Nil(t, result.Script)
}

// faultFS fails Rename onto one path, leaving everything else to the
// wrapped filesystem.
type faultFS struct {
	types.FS
	failRenameTo string
}

func (f *faultFS) Rename(oldpath, newpath string) error {
	if newpath == f.failRenameTo {
		return fmt.Errorf("rename %s: device or resource busy", newpath)
	}
	return f.FS.Rename(oldpath, newpath)
}

func TestApply_FailedRenameLeavesTargetUntouched(t *testing.T) {
	memfs := filesystem.NewMemory()
	require.NoError(t, memfs.MkdirAll("/repo/project/proj", 0755))
	require.NoError(t, memfs.WriteFile("/repo/project/proj/Makefile", []byte("all:\n"), 0644))
	require.NoError(t, memfs.MkdirAll("/work", 0755))
	require.NoError(t, memfs.WriteFile("/work/Makefile", []byte("old contents"), 0644))

	tmpl := &types.Template{Name: "proj", Scope: types.ScopeProject, Path: "/repo/project/proj"}
	plan := &types.Plan{
		Template: tmpl,
		Root:     "/work",
		Force:    true,
		Actions: []types.Action{{
			Kind:   types.ActionOverwriteCopy,
			Source: "/repo/project/proj/Makefile",
			Target: "/work/Makefile",
		}},
	}

	fs := &faultFS{FS: memfs, failRenameTo: "/work/Makefile"}
	result, err := executor.New(fs, nil).Apply(context.Background(), plan, executor.Options{})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.StatusFailed, result.Outcomes[0].Status)
	assert.Empty(t, result.Artifacts)

	// The write landed only in the temporary sibling; the original target
	// survives the failure byte-for-byte and the sibling is cleaned up.
	data, readErr := memfs.ReadFile("/work/Makefile")
	require.NoError(t, readErr)
	assert.Equal(t, "old contents", string(data))

	entries, readErr := memfs.ReadDir("/work")
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, "Makefile", entries[0].Name())
}
