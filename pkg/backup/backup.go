// Package backup periodically snapshots the durable resources and rotates
// old snapshots out.
package backup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/ck4445/ECKOBits/pkg/repository"
)

// Sweeper copies every durable resource into a timestamped folder on a
// fixed interval and keeps only the newest snapshots.
type Sweeper struct {
	repo      *repository.Repository
	backupDir string
	interval  time.Duration
	keep      int
	logger    log.Logger
	quit      chan struct{}
}

// NewSweeper returns a backup Sweeper writing under backupDir.
func NewSweeper(repo *repository.Repository, backupDir string, interval time.Duration, keep int, logger log.Logger) *Sweeper {
	return &Sweeper{
		repo:      repo,
		backupDir: backupDir,
		interval:  interval,
		keep:      keep,
		logger:    log.With(logger, "component", "backup"),
		quit:      make(chan struct{}),
	}
}

// Run sweeps until Stop is called. A failed sweep is logged and retried on
// the next wake.
func (s *Sweeper) Run() error {
	for {
		if err := s.Sweep(); err != nil {
			_ = level.Error(s.logger).Log("during", "sweep", "err", err)
		}
		select {
		case <-s.quit:
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Stop interrupts Run.
func (s *Sweeper) Stop() {
	close(s.quit)
}

// Sweep takes one snapshot and prunes the oldest beyond the retention
// count. Failing to delete one stale snapshot does not abort the sweep.
func (s *Sweeper) Sweep() error {
	stamp := s.timestamp()
	dest := filepath.Join(s.backupDir, stamp)
	if err := s.repo.Snapshot(dest); err != nil {
		return err
	}
	if err := s.prune(); err != nil {
		return err
	}
	_ = level.Info(s.logger).Log("msg", "backup completed", "snapshot", stamp)
	return nil
}

func (s *Sweeper) timestamp() string {
	return time.Now().Format("20060102_150405")
}

// prune deletes the oldest snapshots beyond keep. Snapshot folder names
// sort chronologically, so name order is age order.
func (s *Sweeper) prune() error {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return err
	}
	if len(entries) <= s.keep {
		return nil
	}
	for _, entry := range entries[:len(entries)-s.keep] {
		path := filepath.Join(s.backupDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			_ = level.Error(s.logger).Log("during", "prune", "snapshot", entry.Name(), "err", err)
		}
	}
	return nil
}
