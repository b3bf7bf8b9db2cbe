package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	synccmd "github.com/templink/templink/pkg/commands/sync"
)

type stubSyncer struct {
	path     string
	lastSync time.Time
	err      error
	calls    int
}

func (s *stubSyncer) Sync(context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.lastSync = time.Now()
	return s.path, nil
}

func (s *stubSyncer) LocalPath() string   { return s.path }
func (s *stubSyncer) LastSync() time.Time { return s.lastSync }

func TestSync_Refreshes(t *testing.T) {
	syncer := &stubSyncer{path: "/cache/repo"}

	result, err := synccmd.Sync(context.Background(), synccmd.Options{Syncer: syncer})
	require.NoError(t, err)
	assert.Equal(t, "/cache/repo", result.Path)
	assert.Equal(t, 1, syncer.calls)
	assert.False(t, result.SyncedAt.IsZero())
}

func TestSync_PropagatesErrors(t *testing.T) {
	syncer := &stubSyncer{err: assert.AnError}

	_, err := synccmd.Sync(context.Background(), synccmd.Options{Syncer: syncer})
	assert.Error(t, err)
}

func TestAutoSync_SkipsFreshCache(t *testing.T) {
	syncer := &stubSyncer{path: "/cache/repo", lastSync: time.Now().Add(-5 * time.Minute)}

	ran, err := synccmd.AutoSync(context.Background(), synccmd.Options{Syncer: syncer}, time.Hour)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, syncer.calls)
}

func TestAutoSync_RunsWhenStale(t *testing.T) {
	syncer := &stubSyncer{path: "/cache/repo", lastSync: time.Now().Add(-2 * time.Hour)}

	ran, err := synccmd.AutoSync(context.Background(), synccmd.Options{Syncer: syncer}, time.Hour)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, syncer.calls)
}

func TestAutoSync_RunsWhenNeverSynced(t *testing.T) {
	syncer := &stubSyncer{path: "/cache/repo"}

	ran, err := synccmd.AutoSync(context.Background(), synccmd.Options{Syncer: syncer}, time.Hour)
	require.NoError(t, err)
	assert.True(t, ran)
}
