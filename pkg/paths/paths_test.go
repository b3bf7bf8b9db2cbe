package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templink/templink/pkg/paths"
)

func TestNewWithExplicitHome(t *testing.T) {
	home := t.TempDir()
	p, err := paths.New(home)
	require.NoError(t, err)
	assert.Equal(t, home, p.HomeDir())
}

func TestNewHomeFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.EnvHomeDir, home)

	p, err := paths.New("")
	require.NoError(t, err)
	assert.Equal(t, home, p.HomeDir())
}

func TestEnvOverrides(t *testing.T) {
	home := t.TempDir()
	configDir := t.TempDir()
	dataDir := t.TempDir()
	stateDir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, configDir)
	t.Setenv(paths.EnvDataDir, dataDir)
	t.Setenv(paths.EnvStateDir, stateDir)

	p, err := paths.New(home)
	require.NoError(t, err)

	assert.Equal(t, configDir, p.ConfigDir())
	assert.Equal(t, dataDir, p.DataDir())
	assert.Equal(t, stateDir, p.StateDir())
	assert.Equal(t, filepath.Join(configDir, "config.toml"), p.ConfigFilePath())
	assert.Equal(t, filepath.Join(stateDir, "ledger"), p.LedgerDir())
	assert.Equal(t, filepath.Join(stateDir, "templink.log"), p.LogFilePath())
}

func TestRepoDirSanitizesURL(t *testing.T) {
	t.Setenv(paths.EnvDataDir, t.TempDir())
	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	dir := p.RepoDir("https://github.com/user/dotfiles.git")
	base := filepath.Base(dir)
	assert.NotContains(t, base, "/")
	assert.NotContains(t, base, ":")
	assert.Equal(t, "https_github_com_user_dotfiles_git", base)

	// Distinct URLs must map to distinct cache directories.
	other := p.RepoDir("git@github.com:user/other.git")
	assert.NotEqual(t, dir, other)
}

func TestSyncMarkerUnderRepoDir(t *testing.T) {
	p, err := paths.New(t.TempDir())
	require.NoError(t, err)

	url := "https://example.com/repo.git"
	assert.Equal(t, filepath.Join(p.RepoDir(url), ".last-sync"), p.SyncMarkerPath(url))
}
