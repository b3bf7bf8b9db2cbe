// Package sync implements the sync command: refresh the local template
// repository cache from its remote.
package sync

import (
	"context"
	"time"

	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/repo"
)

// Options defines the options for the Sync command.
type Options struct {
	// Syncer performs the actual repository update.
	Syncer repo.Syncer
}

// Result reports where the cache lives and when it was last refreshed.
type Result struct {
	Path     string
	SyncedAt time.Time
}

// Sync refreshes the repository cache.
func Sync(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.sync")
	logger.Debug().Msg("Starting sync command")

	path, err := opts.Syncer.Sync(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:     path,
		SyncedAt: opts.Syncer.LastSync(),
	}, nil
}

// AutoSync refreshes the cache only when it is older than maxAge. It
// returns whether a sync ran. Sync failures during auto-sync are
// reported but are expected to be treated as non-fatal by callers that
// can still serve from the existing cache.
func AutoSync(ctx context.Context, opts Options, maxAge time.Duration) (bool, error) {
	if !repo.IsStale(opts.Syncer.LastSync(), maxAge) {
		return false, nil
	}

	logger := logging.GetLogger("commands.sync")
	logger.Info().Dur("maxAge", maxAge).Msg("Repository cache is stale, auto-syncing")

	if _, err := opts.Syncer.Sync(ctx); err != nil {
		return false, err
	}
	return true, nil
}
