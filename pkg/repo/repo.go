// Package repo manages the local cache of the template repository. The
// cache is cloned on first use and fast-forwarded on sync through the git
// CLI; a marker file records the time of the last successful sync so
// commands can decide when the cache is stale.
package repo

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
)

// Syncer keeps a local checkout of a remote template repository current.
type Syncer interface {
	// Sync clones or updates the checkout and returns its local path.
	Sync(ctx context.Context) (string, error)

	// LocalPath returns the checkout path without touching the network.
	LocalPath() string

	// LastSync returns the time of the last successful sync, or the zero
	// time when the repository has never been synced.
	LastSync() time.Time
}

// GitSyncer syncs through the git command line tool.
type GitSyncer struct {
	url        string
	branch     string
	dir        string
	markerPath string
	log        zerolog.Logger
}

// NewGitSyncer creates a syncer for url checked out at dir on branch.
func NewGitSyncer(url, branch, dir, markerPath string) *GitSyncer {
	if branch == "" {
		branch = "main"
	}
	return &GitSyncer{
		url:        url,
		branch:     branch,
		dir:        dir,
		markerPath: markerPath,
		log:        logging.GetLogger("repo"),
	}
}

// Sync clones the repository if the checkout is absent, otherwise fetches
// and hard-resets to the remote branch. Local edits inside the cache are
// discarded; the cache is not a working area.
func (s *GitSyncer) Sync(ctx context.Context) (string, error) {
	if s.url == "" {
		return "", errors.New(errors.ErrRepoConfig, "no repository URL configured, run 'templink config set repo_url <url>'")
	}

	if s.isCheckout() {
		if err := s.update(ctx); err != nil {
			return "", err
		}
	} else {
		if err := s.clone(ctx); err != nil {
			return "", err
		}
	}

	if err := s.touchMarker(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to update sync marker")
	}

	s.log.Info().Str("url", s.url).Str("branch", s.branch).Msg("Repository synced")
	return s.dir, nil
}

// LocalPath returns the checkout directory.
func (s *GitSyncer) LocalPath() string {
	return s.dir
}

// LastSync reads the sync marker. A missing or unreadable marker reports
// the zero time, which callers treat as "never synced".
func (s *GitSyncer) LastSync() time.Time {
	info, err := os.Stat(s.markerPath)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (s *GitSyncer) isCheckout() bool {
	info, err := os.Stat(filepath.Join(s.dir, ".git"))
	return err == nil && info.IsDir()
}

func (s *GitSyncer) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.dir), 0755); err != nil {
		return errors.Wrap(err, errors.ErrRepoSync, "failed to create repository cache directory")
	}

	s.log.Info().Str("url", s.url).Msg("Cloning template repository")
	return s.git(ctx, "", "clone", "--branch", s.branch, "--single-branch", s.url, s.dir)
}

func (s *GitSyncer) update(ctx context.Context) error {
	if err := s.git(ctx, s.dir, "fetch", "origin", s.branch); err != nil {
		return err
	}
	return s.git(ctx, s.dir, "reset", "--hard", "origin/"+s.branch)
}

func (s *GitSyncer) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return errors.Wrapf(err, errors.ErrRepoSync, "git %s failed: %s", args[0], detail)
		}
		return errors.Wrapf(err, errors.ErrRepoSync, "git %s failed", args[0])
	}
	return nil
}

func (s *GitSyncer) touchMarker() error {
	now := time.Now()
	if err := os.WriteFile(s.markerPath, []byte(now.UTC().Format(time.RFC3339)+"\n"), 0644); err != nil {
		return err
	}
	return os.Chtimes(s.markerPath, now, now)
}

// IsStale reports whether lastSync is older than maxAge. A zero lastSync
// is always stale.
func IsStale(lastSync time.Time, maxAge time.Duration) bool {
	if lastSync.IsZero() {
		return true
	}
	return time.Since(lastSync) > maxAge
}
