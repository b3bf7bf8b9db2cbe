// Package ledger persists, per (template, scope), the artifacts produced
// by prior applications. One YAML document per template keeps corrupt or
// missing entries from ever blocking the others. The ledger is an
// append-mostly log: staleness is always determined by a live re-probe,
// never inferred from the ledger alone.
package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/types"
)

// Ledger stores entries under dir, one file per (scope, template).
type Ledger struct {
	fs  types.FS
	dir string
	log zerolog.Logger

	// mu serializes writers. Contention is low and brief; a single
	// critical section is sufficient.
	mu sync.Mutex
}

// New creates a Ledger rooted at dir.
func New(fs types.FS, dir string) *Ledger {
	return &Ledger{
		fs:  fs,
		dir: dir,
		log: logging.GetLogger("ledger"),
	}
}

// Record merges artifacts into the entry for (name, scope), creating it on
// first application. Artifacts are matched by target path: later
// applications overwrite matching paths and append new ones. The entry is
// never silently shrunk.
func (l *Ledger) Record(name string, scope types.Scope, artifacts []types.Artifact) (*types.LedgerEntry, error) {
	if len(artifacts) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "refusing to record an empty artifact set")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.load(name, scope)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &types.LedgerEntry{
			TemplateName: name,
			Scope:        scope,
		}
	}

	for _, artifact := range artifacts {
		if existing := entry.FindArtifact(artifact.TargetPath); existing != nil {
			// An unchanged artifact keeps its original creation time, so
			// re-applying an already-satisfied template leaves the entry
			// observably identical.
			if existing.SourcePath == artifact.SourcePath &&
				existing.Origin == artifact.Origin &&
				existing.Checksum == artifact.Checksum {
				artifact.CreatedAt = existing.CreatedAt
			}
			*existing = artifact
		} else {
			entry.Artifacts = append(entry.Artifacts, artifact)
		}
	}
	entry.LastAppliedAt = time.Now().UTC()

	if err := l.write(entry); err != nil {
		return nil, err
	}

	l.log.Debug().
		Str("template", name).
		Str("scope", string(scope)).
		Int("artifacts", len(entry.Artifacts)).
		Msg("Ledger entry recorded")
	return entry, nil
}

// Load returns the entry for (name, scope), or nil when absent.
func (l *Ledger) Load(name string, scope types.Scope) (*types.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(name, scope)
}

// All returns every readable entry. Corrupt files are skipped with a
// warning so one bad entry never hides the rest.
func (l *Ledger) All() ([]*types.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []*types.LedgerEntry
	for _, scope := range []types.Scope{types.ScopeDotfiles, types.ScopeProject} {
		scopeDir := filepath.Join(l.dir, string(scope))
		dirEntries, err := l.fs.ReadDir(scopeDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrLedgerRead, "failed to read ledger directory %s", scopeDir)
		}

		for _, de := range dirEntries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".yaml") {
				continue
			}
			name := strings.TrimSuffix(de.Name(), ".yaml")
			entry, err := l.load(name, scope)
			if err != nil {
				l.log.Warn().Err(err).Str("template", name).Str("scope", string(scope)).
					Msg("Skipping unreadable ledger entry")
				continue
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

// Remove deletes the entry for (name, scope). Removing an absent entry is
// not an error.
func (l *Ledger) Remove(name string, scope types.Scope) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.fs.Remove(l.entryPath(name, scope))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrLedgerWrite, "failed to remove ledger entry for %s", name)
	}
	return nil
}

func (l *Ledger) load(name string, scope types.Scope) (*types.LedgerEntry, error) {
	data, err := l.fs.ReadFile(l.entryPath(name, scope))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrLedgerRead, "failed to read ledger entry for %s", name)
	}

	var entry types.LedgerEntry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrapf(err, errors.ErrLedgerRead, "corrupt ledger entry for %s (%s)", name, scope)
	}
	return &entry, nil
}

func (l *Ledger) write(entry *types.LedgerEntry) error {
	data, err := yaml.Marshal(entry)
	if err != nil {
		return errors.Wrapf(err, errors.ErrLedgerWrite, "failed to serialize ledger entry for %s", entry.TemplateName)
	}

	path := l.entryPath(entry.TemplateName, entry.Scope)
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrLedgerWrite, "failed to create ledger directory")
	}

	// Write-then-rename so a crash mid-write never corrupts the entry.
	tmp := path + ".tmp"
	if err := l.fs.WriteFile(tmp, data, 0644); err != nil {
		_ = l.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrLedgerWrite, "failed to write ledger entry for %s", entry.TemplateName)
	}
	if err := l.fs.Rename(tmp, path); err != nil {
		_ = l.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrLedgerWrite, "failed to move ledger entry into place for %s", entry.TemplateName)
	}
	return nil
}

func (l *Ledger) entryPath(name string, scope types.Scope) string {
	return filepath.Join(l.dir, string(scope), name+".yaml")
}
