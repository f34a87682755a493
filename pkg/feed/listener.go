package feed

import (
	"context"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/ck4445/ECKOBits/pkg/command"
	"github.com/ck4445/ECKOBits/pkg/repository"
)

// Listener is the comment intake loop: fetch a bounded recent window,
// process the unseen comments oldest-first, mark every one processed
// whether or not it carried a command. A failed poll is logged and retried
// on the next wake; the loop never terminates from an error.
type Listener struct {
	source    Source
	repo      *repository.Repository
	processor *command.Processor
	logger    log.Logger
	interval  time.Duration
	limit     int
	quit      chan struct{}
}

// NewListener returns a comment intake loop.
func NewListener(source Source, repo *repository.Repository, processor *command.Processor, interval time.Duration, limit int, logger log.Logger) *Listener {
	return &Listener{
		source:    source,
		repo:      repo,
		processor: processor,
		logger:    log.With(logger, "component", "feed"),
		interval:  interval,
		limit:     limit,
		quit:      make(chan struct{}),
	}
}

// Run polls until Stop is called.
func (l *Listener) Run() error {
	for {
		if err := l.Poll(context.Background()); err != nil {
			_ = level.Error(l.logger).Log("during", "poll", "err", err)
		}
		select {
		case <-l.quit:
			return nil
		case <-time.After(l.interval):
		}
	}
}

// Stop interrupts Run.
func (l *Listener) Stop() {
	close(l.quit)
}

// Poll performs one intake pass.
func (l *Listener) Poll(ctx context.Context) error {
	comments, err := l.source.Comments(ctx, l.limit)
	if err != nil {
		return err
	}
	// The source yields newest first; handle the backlog oldest first.
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		processed, err := l.repo.IsCommentProcessed(c.ID)
		if err != nil {
			return err
		}
		if processed {
			continue
		}
		parts := strings.Split(strings.TrimSpace(c.Content), " ")
		if len(parts) > 0 && parts[0] != "" && command.Recognized(parts[0]) {
			_ = level.Debug(l.logger).Log("msg", "command comment", "id", c.ID, "author", c.Author)
			l.processor.Process(ctx, c.Author, parts)
		}
		if err := l.repo.MarkCommentProcessed(c.ID); err != nil {
			return err
		}
	}
	return nil
}
