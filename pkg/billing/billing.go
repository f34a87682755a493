// Package billing walks the subscription store on a fixed interval and
// settles due recurring payments.
package billing

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/ck4445/ECKOBits/pkg/repository"
)

// Scheduler re-evaluates the whole subscription store once per tick. A due
// subscription either settles (and is rescheduled from the tick time, so
// cycles missed during downtime are skipped, not caught up) or fails on
// insufficient funds and is dropped for good.
type Scheduler struct {
	repo     *repository.Repository
	logger   log.Logger
	interval time.Duration
	now      func() time.Time
	quit     chan struct{}
}

// NewScheduler returns a billing Scheduler ticking at the given interval.
func NewScheduler(repo *repository.Repository, interval time.Duration, logger log.Logger) *Scheduler {
	return &Scheduler{
		repo:     repo,
		logger:   log.With(logger, "component", "billing"),
		interval: interval,
		now:      time.Now,
		quit:     make(chan struct{}),
	}
}

// SetClock overrides the scheduler's clock. Tests only.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Run ticks until Stop is called. A failed tick is logged and retried on
// the next wake.
func (s *Scheduler) Run() error {
	for {
		if err := s.Tick(); err != nil {
			_ = level.Error(s.logger).Log("during", "tick", "err", err)
		}
		select {
		case <-s.quit:
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Stop interrupts Run.
func (s *Scheduler) Stop() {
	close(s.quit)
}

// Tick loads the full subscription set, settles the due entries and writes
// the full set back. On a storage error the save is skipped and the whole
// tick retried later, so no partial subscription state is persisted.
func (s *Scheduler) Tick() error {
	now := s.now().Unix()
	subs, err := s.repo.AllSubscriptions()
	if err != nil {
		return err
	}
	updated := make([]repository.Subscription, 0, len(subs))
	for _, sub := range subs {
		if now < sub.NextPayment {
			updated = append(updated, sub)
			continue
		}
		keep, err := s.settle(&sub, now)
		if err != nil {
			return err
		}
		if keep {
			updated = append(updated, sub)
		}
	}
	return s.repo.SaveSubscriptions(updated)
}

// settle attempts one due payment, reporting whether the subscription stays
// in the store.
func (s *Scheduler) settle(sub *repository.Subscription, now int64) (bool, error) {
	duration, ok := repository.CycleDuration(sub.Cycle)
	if !ok {
		// An unadvanceable entry would be re-billed every tick; drop it.
		_ = level.Warn(s.logger).Log("msg", "dropping subscription with unknown cycle", "payer", sub.Payer, "payee", sub.Payee, "cycle", sub.Cycle)
		return false, nil
	}
	err := s.repo.TransferBalances(sub.Payer, sub.Payee, sub.Amount)
	if err == repository.ErrInsufficientFunds {
		ts := repository.ReadableTimestamp()
		_ = s.repo.AddNotification(sub.Payer, fmt.Sprintf("%s - Your subscription payment of %s bits to %s failed due to insufficient balance. Subscription cancelled.",
			ts, sub.Amount.StringFixed(1), sub.Payee))
		_ = s.repo.AddNotification(sub.Payee, fmt.Sprintf("%s - %s's subscription payment of %s bits failed due to insufficient balance. Subscription cancelled.",
			ts, sub.Payer, sub.Amount.StringFixed(1)))
		_ = level.Info(s.logger).Log("msg", "subscription cancelled", "payer", sub.Payer, "payee", sub.Payee, "reason", "insufficient funds")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := s.repo.AppendTransaction(sub.Payer, sub.Payee, sub.Amount); err != nil {
		return false, err
	}
	newBalance, _ := s.repo.Balance(sub.Payer)
	ts := repository.ReadableTimestamp()
	_ = s.repo.AddNotification(sub.Payee, fmt.Sprintf("%s - %s paid you %s bits for your %s subscription!",
		ts, sub.Payer, sub.Amount.StringFixed(1), sub.Cycle))
	_ = s.repo.AddNotification(sub.Payer, fmt.Sprintf("%s - You paid %s bits to %s for your %s subscription. Your new balance: %s",
		ts, sub.Amount.StringFixed(1), sub.Payee, sub.Cycle, newBalance.StringFixed(1)))
	sub.LastPaid = now
	sub.NextPayment = now + int64(duration.Seconds())
	_ = level.Info(s.logger).Log("msg", "subscription settled", "payer", sub.Payer, "payee", sub.Payee, "next", sub.NextPayment)
	return true, nil
}
