// Package paths provides centralized path handling for templink.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/templink/templink/pkg/errors"
)

// Environment variable names
const (
	// EnvHomeDir overrides the home directory dotfiles link into
	EnvHomeDir = "TEMPLINK_HOME"

	// EnvDataDir overrides the XDG data directory for templink
	EnvDataDir = "TEMPLINK_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for templink
	EnvConfigDir = "TEMPLINK_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for templink
	EnvStateDir = "TEMPLINK_STATE_DIR"
)

// Default directories and files
// IMPORTANT: These constants define templink's internal layout and are NOT
// user-configurable. They must remain consistent across installations.
const (
	// AppDirName is the directory name for templink-specific files
	AppDirName = "templink"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// LedgerDirName is the subdirectory for ledger entries
	LedgerDirName = "ledger"

	// ReposDirName is the subdirectory for repository caches
	ReposDirName = "repos"

	// SyncMarkerName marks the time of the last successful repo sync
	SyncMarkerName = ".last-sync"

	// MetadataFileName is the per-template metadata file
	MetadataFileName = "metadata.toml"

	// InstallScriptName is the optional per-template install script
	InstallScriptName = "install.sh"

	// LogFileName is the name of the log file
	LogFileName = "templink.log"
)

// Paths provides centralized path management for templink
type Paths interface {
	HomeDir() string
	ConfigDir() string
	DataDir() string
	StateDir() string
	ConfigFilePath() string
	LedgerDir() string
	ReposDir() string
	RepoDir(repoURL string) string
	SyncMarkerPath(repoURL string) string
	LogFilePath() string
}

type paths struct {
	homeDir   string
	xdgConfig string
	xdgData   string
	xdgState  string
}

// New creates a new Paths instance. If homeDir is empty it is resolved from
// TEMPLINK_HOME, then the OS home directory.
func New(homeDir string) (Paths, error) {
	p := &paths{}

	if homeDir == "" {
		homeDir = os.Getenv(EnvHomeDir)
	}
	if homeDir == "" {
		var err error
		homeDir, err = os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to determine home directory")
		}
	}

	absHome, err := filepath.Abs(expandHome(homeDir))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for home directory")
	}
	p.homeDir = absHome

	p.setupXDGDirs()
	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, AppDirName)
	}

	if stateDir := os.Getenv(EnvStateDir); stateDir != "" {
		p.xdgState = expandHome(stateDir)
	} else if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		p.xdgState = filepath.Join(xdgStateHome, AppDirName)
	} else {
		p.xdgState = filepath.Join(p.homeDir, ".local", "state", AppDirName)
	}
}

func (p *paths) HomeDir() string {
	return p.homeDir
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) DataDir() string {
	return p.xdgData
}

func (p *paths) StateDir() string {
	return p.xdgState
}

func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

func (p *paths) LedgerDir() string {
	return filepath.Join(p.xdgState, LedgerDirName)
}

func (p *paths) ReposDir() string {
	return filepath.Join(p.xdgData, ReposDirName)
}

// RepoDir maps a repository URL onto a stable cache directory name.
func (p *paths) RepoDir(repoURL string) string {
	return filepath.Join(p.ReposDir(), sanitizeRepoURL(repoURL))
}

func (p *paths) SyncMarkerPath(repoURL string) string {
	return filepath.Join(p.RepoDir(repoURL), SyncMarkerName)
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// sanitizeRepoURL turns a repository URL into a safe directory name.
func sanitizeRepoURL(repoURL string) string {
	safe := repoURL
	safe = strings.ReplaceAll(safe, "://", "_")
	safe = strings.ReplaceAll(safe, "/", "_")
	safe = strings.ReplaceAll(safe, ":", "_")
	safe = strings.ReplaceAll(safe, "@", "_")
	safe = strings.ReplaceAll(safe, ".", "_")
	if safe == "" {
		safe = "default"
	}
	return safe
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
