package apply_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templink/templink/pkg/commands/apply"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/testutil"
	"github.com/templink/templink/pkg/types"
)

func TestApply_ScaffoldsProject(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("python-project", types.ScopeProject, map[string]string{
		"pyproject.toml":  "[project]\n",
		"src/__init__.py": "",
	})

	result, err := apply.Apply(context.Background(), apply.Options{
		RepoDir:      env.RepoDir,
		TemplateName: "python-project",
		TargetDir:    env.TargetDir,
		LedgerDir:    env.StateDir,
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflicts())
	assert.False(t, result.HasFailures())

	info, err := os.Lstat(env.TargetPath("pyproject.toml"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.FileExists(t, env.TargetPath("src/__init__.py"))
}

func TestApply_RequiresTemplateName(t *testing.T) {
	env := testutil.NewEnvironment(t)

	_, err := apply.Apply(context.Background(), apply.Options{
		RepoDir:   env.RepoDir,
		TargetDir: env.TargetDir,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInput, errors.GetErrorCode(err))
}

func TestApply_DotfilesTemplateNotVisible(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("vim", types.ScopeDotfiles, map[string]string{".vimrc": "x"})

	_, err := apply.Apply(context.Background(), apply.Options{
		RepoDir:      env.RepoDir,
		TemplateName: "vim",
		TargetDir:    env.TargetDir,
		LedgerDir:    env.StateDir,
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrTemplateNotFound, errors.GetErrorCode(err))
}

func TestApply_ExistingFileConflicts(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"Makefile": "all:\n"})
	env.WriteFile(env.TargetPath("Makefile"), "custom build")

	result, err := apply.Apply(context.Background(), apply.Options{
		RepoDir:      env.RepoDir,
		TemplateName: "proj",
		TargetDir:    env.TargetDir,
		LedgerDir:    env.StateDir,
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflicts())
	assert.Equal(t, "custom build", env.ReadFile(env.TargetPath("Makefile")))
}

func TestApply_ForceOverwrites(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.AddTemplate("proj", types.ScopeProject, map[string]string{"Makefile": "all:\n"})
	env.WriteFile(env.TargetPath("Makefile"), "custom build")

	result, err := apply.Apply(context.Background(), apply.Options{
		RepoDir:      env.RepoDir,
		TemplateName: "proj",
		TargetDir:    env.TargetDir,
		LedgerDir:    env.StateDir,
		Force:        true,
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflicts())
	assert.Equal(t, "all:\n", env.ReadFile(env.TargetPath("Makefile")))
}
