package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck4445/ECKOBits/pkg/repository"
)

func TestSweepSnapshots(t *testing.T) {
	repo, err := repository.New(t.TempDir(), log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, repo.SetBalance("alice", decimal.NewFromInt(50)))
	require.NoError(t, repo.AddNotification("alice", "hello"))

	backupDir := t.TempDir()
	s := NewSweeper(repo, backupDir, time.Minute, 10, log.NewNopLogger())
	require.NoError(t, s.Sweep())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	snap := filepath.Join(backupDir, entries[0].Name())
	raw, err := os.ReadFile(filepath.Join(snap, repository.BalanceFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "alice:50.0000")
	raw, err = os.ReadFile(filepath.Join(snap, repository.NotificationDir, "alice.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hello")
}

func TestSweepPrunesOldSnapshots(t *testing.T) {
	repo, err := repository.New(t.TempDir(), log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, repo.SetBalance("alice", decimal.NewFromInt(50)))

	backupDir := t.TempDir()
	// stale snapshots from an earlier run; names sort chronologically
	for _, name := range []string{"20240101_000000", "20240102_000000"} {
		require.NoError(t, os.MkdirAll(filepath.Join(backupDir, name), 0o755))
	}

	s := NewSweeper(repo, backupDir, time.Minute, 2, log.NewNopLogger())
	require.NoError(t, s.Sweep())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// the oldest one was rotated out, the fresh snapshot survives
	assert.Equal(t, "20240102_000000", entries[0].Name())
	assert.NotEqual(t, "20240101_000000", entries[1].Name())
}
