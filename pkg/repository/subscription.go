package repository

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"
)

// Billing cycles. A month is a flat 30 days, not calendar-aware.
const (
	CycleDaily   = "daily"
	CycleWeekly  = "weekly"
	CycleMonthly = "monthly"
)

// CycleDuration maps a cycle name to its fixed duration. The second return
// is false for unknown cycles.
func CycleDuration(cycle string) (time.Duration, bool) {
	switch cycle {
	case CycleDaily:
		return 24 * time.Hour, true
	case CycleWeekly:
		return 7 * 24 * time.Hour, true
	case CycleMonthly:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// Subscription is a recurring payment from payer to payee. The (payer,
// payee) pair is the unique key; creating a second subscription for the
// same pair replaces the first.
type Subscription struct {
	Payer       string          `json:"payer"`
	Payee       string          `json:"payee"`
	Amount      decimal.Decimal `json:"amount"`
	Cycle       string          `json:"cycle"`
	LastPaid    int64           `json:"last_paid_timestamp"`
	NextPayment int64           `json:"next_payment_timestamp"`
}

// loadSubscriptions parses the subscription resource, skipping malformed or
// incomplete records. Caller holds subscriptionMu.
func (r *Repository) loadSubscriptions() ([]Subscription, error) {
	lines, err := readLines(r.path(SubscriptionFile))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "loadSubscriptions", "err", err)
		return nil, err
	}
	subs := make([]Subscription, 0, len(lines))
	for _, line := range lines {
		var sub Subscription
		if err := json.Unmarshal([]byte(line), &sub); err != nil {
			continue
		}
		if sub.Payer == "" || sub.Payee == "" || sub.Cycle == "" {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// saveSubscriptions writes the full subscription set. Caller holds
// subscriptionMu.
func (r *Repository) saveSubscriptions(subs []Subscription) error {
	var b strings.Builder
	for _, sub := range subs {
		raw, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		b.Write(raw)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.path(SubscriptionFile), []byte(b.String())); err != nil {
		_ = level.Error(r.logger).Log("method", "saveSubscriptions", "err", err)
		return err
	}
	return nil
}

// UpsertSubscription stores the subscription, replacing any existing one
// for the same payer and payee.
func (r *Repository) UpsertSubscription(sub Subscription) error {
	sub.Payer = SanitizeName(sub.Payer)
	sub.Payee = SanitizeName(sub.Payee)
	sub.Amount = sub.Amount.Round(1)
	r.subscriptionMu.Lock()
	defer r.subscriptionMu.Unlock()
	subs, err := r.loadSubscriptions()
	if err != nil {
		return err
	}
	replaced := false
	for i := range subs {
		if subs[i].Payer == sub.Payer && subs[i].Payee == sub.Payee {
			subs[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		subs = append(subs, sub)
	}
	return r.saveSubscriptions(subs)
}

// RemoveSubscription drops the subscription for the pair, reporting whether
// one existed.
func (r *Repository) RemoveSubscription(payer, payee string) (bool, error) {
	payer = SanitizeName(payer)
	payee = SanitizeName(payee)
	r.subscriptionMu.Lock()
	defer r.subscriptionMu.Unlock()
	subs, err := r.loadSubscriptions()
	if err != nil {
		return false, err
	}
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Payer == payer && sub.Payee == payee {
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == len(subs) {
		return false, nil
	}
	return true, r.saveSubscriptions(kept)
}

// RemoveSubscriptionsByPayer drops every subscription the payer holds and
// returns the payees that were being paid.
func (r *Repository) RemoveSubscriptionsByPayer(payer string) ([]string, error) {
	payer = SanitizeName(payer)
	r.subscriptionMu.Lock()
	defer r.subscriptionMu.Unlock()
	subs, err := r.loadSubscriptions()
	if err != nil {
		return nil, err
	}
	var removed []string
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Payer == payer {
			removed = append(removed, sub.Payee)
			continue
		}
		kept = append(kept, sub)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	return removed, r.saveSubscriptions(kept)
}

// SubscriptionsByPayer returns the payer's active subscriptions.
func (r *Repository) SubscriptionsByPayer(payer string) ([]Subscription, error) {
	payer = SanitizeName(payer)
	subs, err := r.AllSubscriptions()
	if err != nil {
		return nil, err
	}
	matched := make([]Subscription, 0)
	for _, sub := range subs {
		if sub.Payer == payer {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// AllSubscriptions returns the full subscription set.
func (r *Repository) AllSubscriptions() ([]Subscription, error) {
	r.subscriptionMu.Lock()
	defer r.subscriptionMu.Unlock()
	return r.loadSubscriptions()
}

// SaveSubscriptions replaces the full subscription set. The billing
// scheduler uses this for its whole-store tick write; callers creating or
// cancelling between a load and this save race with it, which is the
// documented behaviour of the tick.
func (r *Repository) SaveSubscriptions(subs []Subscription) error {
	r.subscriptionMu.Lock()
	defer r.subscriptionMu.Unlock()
	return r.saveSubscriptions(subs)
}
