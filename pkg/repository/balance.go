package repository

import (
	"sort"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"
)

// DefaultBalance is what the first read of an unknown account materializes.
var DefaultBalance = decimal.NewFromInt(100)

// LeaderboardEntry is one row of the balance leaderboard.
type LeaderboardEntry struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	Company bool            `json:"company"`
}

// loadBalances parses the balances resource. Caller holds balanceMu.
// A malformed line is skipped, never fatal.
func (r *Repository) loadBalances() (map[string]decimal.Decimal, error) {
	lines, err := readLines(r.path(BalanceFile))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "loadBalances", "err", err)
		return nil, err
	}
	balances := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		user, raw, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		bal, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		balances[user] = bal
	}
	return balances, nil
}

// saveBalances writes the full ledger at four fractional digits of stored
// precision. Caller holds balanceMu.
func (r *Repository) saveBalances(balances map[string]decimal.Decimal) error {
	users := make([]string, 0, len(balances))
	for user := range balances {
		users = append(users, user)
	}
	sort.Strings(users)
	var b strings.Builder
	for _, user := range users {
		b.WriteString(user)
		b.WriteByte(':')
		b.WriteString(balances[user].StringFixed(4))
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(r.path(BalanceFile), []byte(b.String())); err != nil {
		_ = level.Error(r.logger).Log("method", "saveBalances", "err", err)
		return err
	}
	return nil
}

// Balance returns the account's balance rounded to one display decimal. An
// unknown account is created with the default starting balance.
func (r *Repository) Balance(user string) (decimal.Decimal, error) {
	user = SanitizeName(user)
	r.balanceMu.Lock()
	defer r.balanceMu.Unlock()
	balances, err := r.loadBalances()
	if err != nil {
		return decimal.Zero, err
	}
	if bal, ok := balances[user]; ok {
		return bal.Round(1), nil
	}
	balances[user] = DefaultBalance
	if err := r.saveBalances(balances); err != nil {
		return decimal.Zero, err
	}
	return DefaultBalance, nil
}

// SetBalance overwrites a single ledger entry.
func (r *Repository) SetBalance(user string, amount decimal.Decimal) error {
	user = SanitizeName(user)
	r.balanceMu.Lock()
	defer r.balanceMu.Unlock()
	balances, err := r.loadBalances()
	if err != nil {
		return err
	}
	balances[user] = amount
	return r.saveBalances(balances)
}

// TransferBalances debits from and credits to inside a single critical
// section over the balances resource, so no other writer can interleave
// between the two sides. Absent accounts are materialized at the default
// starting balance before the funds check. On ErrInsufficientFunds nothing
// is written beyond that materialization.
func (r *Repository) TransferBalances(from, to string, amount decimal.Decimal) error {
	from = SanitizeName(from)
	to = SanitizeName(to)
	r.balanceMu.Lock()
	defer r.balanceMu.Unlock()
	balances, err := r.loadBalances()
	if err != nil {
		return err
	}
	for _, user := range []string{from, to} {
		if _, ok := balances[user]; !ok {
			balances[user] = DefaultBalance
		}
	}
	if balances[from].LessThan(amount) {
		// Still persist any lazily created entries.
		if err := r.saveBalances(balances); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	balances[from] = balances[from].Sub(amount)
	balances[to] = balances[to].Add(amount)
	return r.saveBalances(balances)
}

// FundNewAccount debits from and sets to's balance to exactly amount, in
// one critical section. Used when founding a company: the company account
// starts with the seed capital only, not the lazy default balance.
func (r *Repository) FundNewAccount(from, to string, amount decimal.Decimal) error {
	from = SanitizeName(from)
	to = SanitizeName(to)
	r.balanceMu.Lock()
	defer r.balanceMu.Unlock()
	balances, err := r.loadBalances()
	if err != nil {
		return err
	}
	if _, ok := balances[from]; !ok {
		balances[from] = DefaultBalance
	}
	if balances[from].LessThan(amount) {
		if err := r.saveBalances(balances); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	balances[from] = balances[from].Sub(amount)
	balances[to] = amount
	return r.saveBalances(balances)
}

// Leaderboard returns up to limit accounts ordered by descending balance,
// skipping the first offset entries. Company accounts are flagged so the
// caller can label them.
func (r *Repository) Leaderboard(limit, offset int) ([]LeaderboardEntry, error) {
	r.balanceMu.Lock()
	balances, err := r.loadBalances()
	r.balanceMu.Unlock()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(balances))
	for user, bal := range balances {
		entries = append(entries, LeaderboardEntry{Name: user, Balance: bal.Round(1)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Balance.Equal(entries[j].Balance) {
			return entries[i].Balance.GreaterThan(entries[j].Balance)
		}
		return entries[i].Name < entries[j].Name
	})
	if offset >= len(entries) {
		return []LeaderboardEntry{}, nil
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	companies, err := r.AllCompanies()
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(companies))
	for _, c := range companies {
		names[c.Name] = true
	}
	for i := range entries {
		entries[i].Company = names[entries[i].Name]
	}
	return entries, nil
}
