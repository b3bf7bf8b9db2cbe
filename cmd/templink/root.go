package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	synccmd "github.com/templink/templink/pkg/commands/sync"
	"github.com/templink/templink/pkg/config"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/paths"
	"github.com/templink/templink/pkg/repo"
	"github.com/templink/templink/internal/version"
)

// autoSyncMaxAge is how old the repository cache may get before commands
// that read it trigger a background refresh.
const autoSyncMaxAge = time.Hour

var (
	verbosity int
	dryRun    bool
	force     bool
	localRepo string
)

// NewRootCmd builds the templink command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "templink",
		Short: MsgRootShort,
		Long: `templink keeps your machine in sync with a template repository:
dotfiles templates are installed as symlinks into your home directory, and
project templates are applied as independent file copies. Every change it
makes is recorded, so status can always tell you what is still in place.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, MsgFlagForce)
	rootCmd.PersistentFlags().StringVar(&localRepo, "repo", "", MsgFlagRepo)

	rootCmd.AddCommand(
		newInstallCmd(),
		newApplyCmd(),
		newListCmd(),
		newStatusCmd(),
		newSyncCmd(),
		newUninstallCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	initTemplateFormatting()
	return rootCmd
}

// runtime bundles everything a command needs that is derived from
// configuration: resolved paths and the repository cache location.
type runtime struct {
	cfg     *config.Config
	paths   paths.Paths
	repoDir string
}

// newRuntime loads configuration and resolves the template repository.
// When withRepo is set, the repository cache is located and, if the
// configuration allows it, auto-synced when stale.
func newRuntime(cmd *cobra.Command, withRepo bool) (*runtime, error) {
	pths, err := paths.New("")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(pths.ConfigFilePath())
	if err != nil {
		return nil, err
	}

	if cfg.HomeDir != "" {
		pths, err = paths.New(cfg.HomeDir)
		if err != nil {
			return nil, err
		}
	}

	rt := &runtime{cfg: cfg, paths: pths}
	if !withRepo {
		return rt, nil
	}

	if localRepo != "" {
		abs, err := filepath.Abs(localRepo)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid repository path %q", localRepo)
		}
		rt.repoDir = abs
		return rt, nil
	}

	if !cfg.IsConfigured() {
		return nil, errors.New(errors.ErrRepoConfig,
			"no template repository configured, run 'templink config set repo_url <url>' or pass --repo")
	}

	syncer := rt.syncer()
	if cfg.AutoSync {
		ran, err := synccmd.AutoSync(cmd.Context(), synccmd.Options{Syncer: syncer}, autoSyncMaxAge)
		if err != nil {
			// A stale cache is still usable; only a missing one is fatal.
			if syncer.LastSync().IsZero() {
				return nil, err
			}
			log.Warn().Err(err).Msg("Auto-sync failed, using existing cache")
		} else if ran {
			fmt.Fprintln(cmd.OutOrStdout(), "Template repository refreshed.")
		}
	}

	rt.repoDir = syncer.LocalPath()
	return rt, nil
}

func (rt *runtime) syncer() repo.Syncer {
	return repo.NewGitSyncer(
		rt.cfg.RepoURL,
		rt.cfg.RepoBranch,
		rt.paths.RepoDir(rt.cfg.RepoURL),
		rt.paths.SyncMarkerPath(rt.cfg.RepoURL),
	)
}

var versionCmdTemplate = `templink version %s
  commit: %s
  built:  %s
`

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), versionCmdTemplate, version.Version, version.Commit, version.Date)
		},
	}
}
