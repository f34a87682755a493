package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"

	"github.com/ck4445/ECKOBits/pkg/repository"
)

var (
	// ErrRequiredArgumentMissing - not enough parameters or they empty
	ErrRequiredArgumentMissing = errors.New("Required argument missing or it is incorrect")

	// ErrSelfTransfer error fired when payee equals payer
	ErrSelfTransfer = errors.New("Transfer to self")

	// ErrInvalidAmount error fired when amount is zero or negative
	ErrInvalidAmount = errors.New("Amount must be positive")

	// ErrInsufficientFunds error fired when not enough bits for transfer
	ErrInsufficientFunds = repository.ErrInsufficientFunds

	// ErrUnknownCycle error fired when subscription cycle is not daily/weekly/monthly
	ErrUnknownCycle = errors.New("Unknown subscription cycle")

	// ErrNoSubscription error fired when there is nothing to cancel
	ErrNoSubscription = errors.New("No active subscription")

	// ErrCompanyExists error fired when founding a second company
	ErrCompanyExists = errors.New("Company already exists")

	// ErrCompanyNotFound error fired when company is not registered
	ErrCompanyNotFound = errors.New("Company not found")

	// ErrNotCompanyMember error fired when actor is not an authorized member
	ErrNotCompanyMember = errors.New("Not a company member")

	// ErrAlreadyCompanyMember error fired when user is a member already
	ErrAlreadyCompanyMember = errors.New("Already a company member")
)

// Service is the command-facing surface of the ledger: transfers,
// subscriptions, companies, and the mailbox/preference reads the outer
// consumers use.
type Service interface {
	HealthCheck(context.Context) (bool, error)
	Balance(context.Context, string) (decimal.Decimal, error)
	Transfer(context.Context, string, string, decimal.Decimal) (*repository.Transaction, error)
	Subscribe(context.Context, string, string, decimal.Decimal, string) (*repository.Subscription, error)
	CancelSubscription(context.Context, string, string) error
	CancelAllSubscriptions(context.Context, string) ([]string, error)
	FoundCompany(context.Context, string, decimal.Decimal) (*repository.Company, error)
	AddCompanyMember(context.Context, string, string, string) error
	CompanySend(context.Context, string, string, string, decimal.Decimal) (*repository.Transaction, error)
	Notify(context.Context, string, string) error
	Notifications(context.Context, string) ([]string, error)
	ClearNotifications(context.Context, string) error
	Preferences(context.Context, string) (repository.Preferences, error)
	SetPreferences(context.Context, string, string, string) error
	Leaderboard(context.Context, int, int) ([]repository.LeaderboardEntry, error)
	Subscriptions(context.Context, string) ([]repository.Subscription, error)
	Company(context.Context, string) (*repository.Company, error)
}

// New returns a ledger Service with all of the expected middlewares wired in.
func New(repo *repository.Repository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewLedgerService(repo)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

// NewLedgerService returns a naïve, stateless implementation of Service.
func NewLedgerService(repo *repository.Repository) Service {
	return ledgerService{
		repo: repo,
	}
}

type ledgerService struct {
	repo *repository.Repository
}

// HealthCheck implements Service.
func (ls ledgerService) HealthCheck(_ context.Context) (bool, error) {
	return true, nil
}

// Balance implements Service. First read of an unknown account materializes
// it at the default starting balance.
func (ls ledgerService) Balance(_ context.Context, user string) (decimal.Decimal, error) {
	return ls.repo.Balance(user)
}

// Transfer implements Service: debit sender, credit receiver, log the
// transaction, notify both parties.
func (ls ledgerService) Transfer(_ context.Context, from, to string, amount decimal.Decimal) (*repository.Transaction, error) {
	from = repository.SanitizeName(from)
	to = repository.SanitizeName(to)
	if from == "" || to == "" {
		return nil, ErrRequiredArgumentMissing
	}
	if from == to {
		return nil, ErrSelfTransfer
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(1)

	senderBalance, err := ls.repo.Balance(from)
	if err != nil {
		return nil, err
	}
	if senderBalance.LessThan(amount) {
		ts := repository.ReadableTimestamp()
		_ = ls.repo.AddNotification(from, fmt.Sprintf("%s - Insufficient balance (%s bits) to send %s bits to %s.",
			ts, senderBalance.StringFixed(1), amount.StringFixed(1), to))
		return nil, ErrInsufficientFunds
	}
	if _, err := ls.repo.Balance(to); err != nil {
		return nil, err
	}
	if err := ls.repo.TransferBalances(from, to, amount); err != nil {
		if err == repository.ErrInsufficientFunds {
			ts := repository.ReadableTimestamp()
			_ = ls.repo.AddNotification(from, fmt.Sprintf("%s - Insufficient balance (%s bits) to send %s bits to %s.",
				ts, senderBalance.StringFixed(1), amount.StringFixed(1), to))
		}
		return nil, err
	}
	txn, err := ls.repo.AppendTransaction(from, to, amount)
	if err != nil {
		return nil, err
	}
	newBalance, _ := ls.repo.Balance(from)
	ts := repository.ReadableTimestamp()
	_ = ls.repo.AddNotification(to, fmt.Sprintf("%s - %s gave you %s bits via comment!", ts, from, amount.StringFixed(1)))
	_ = ls.repo.AddNotification(from, fmt.Sprintf("%s - You gave %s bits to %s via comment. Your new balance: %s",
		ts, amount.StringFixed(1), to, newBalance.StringFixed(1)))
	return txn, nil
}

// Subscribe implements Service. The first payment is charged immediately;
// the subscription is stored only after it settles.
func (ls ledgerService) Subscribe(_ context.Context, payer, payee string, amount decimal.Decimal, cycle string) (*repository.Subscription, error) {
	payer = repository.SanitizeName(payer)
	payee = repository.SanitizeName(payee)
	if payer == "" || payee == "" {
		return nil, ErrRequiredArgumentMissing
	}
	duration, ok := repository.CycleDuration(cycle)
	if !ok {
		return nil, ErrUnknownCycle
	}
	if payer == payee {
		return nil, ErrSelfTransfer
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(1)

	payerBalance, err := ls.repo.Balance(payer)
	if err != nil {
		return nil, err
	}
	if payerBalance.LessThan(amount) {
		ts := repository.ReadableTimestamp()
		_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - Insufficient balance (%s bits) for initial subscription payment of %s bits to %s.",
			ts, payerBalance.StringFixed(1), amount.StringFixed(1), payee))
		return nil, ErrInsufficientFunds
	}
	if _, err := ls.repo.Balance(payee); err != nil {
		return nil, err
	}
	if err := ls.repo.TransferBalances(payer, payee, amount); err != nil {
		return nil, err
	}
	if _, err := ls.repo.AppendTransaction(payer, payee, amount); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	sub := repository.Subscription{
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		Cycle:       cycle,
		LastPaid:    now,
		NextPayment: now + int64(duration.Seconds()),
	}
	if err := ls.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	newBalance, _ := ls.repo.Balance(payer)
	ts := repository.ReadableTimestamp()
	_ = ls.repo.AddNotification(payee, fmt.Sprintf("%s - %s subscribed to pay you %s bits every %s!", ts, payer, amount.StringFixed(1), cycle))
	_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - You subscribed to pay %s %s bits every %s. Your new balance: %s",
		ts, payee, amount.StringFixed(1), cycle, newBalance.StringFixed(1)))
	return &sub, nil
}

// CancelSubscription implements Service.
func (ls ledgerService) CancelSubscription(_ context.Context, payer, payee string) error {
	payer = repository.SanitizeName(payer)
	payee = repository.SanitizeName(payee)
	if payer == "" || payee == "" {
		return ErrRequiredArgumentMissing
	}
	removed, err := ls.repo.RemoveSubscription(payer, payee)
	if err != nil {
		return err
	}
	ts := repository.ReadableTimestamp()
	if !removed {
		_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - No active subscription found for %s from your account.", ts, payee))
		return ErrNoSubscription
	}
	_ = ls.repo.AddNotification(payee, fmt.Sprintf("%s - %s cancelled their subscription to pay you.", ts, payer))
	_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - You cancelled your subscription to pay %s.", ts, payee))
	return nil
}

// CancelAllSubscriptions implements Service, returning the payees whose
// subscriptions were dropped.
func (ls ledgerService) CancelAllSubscriptions(_ context.Context, payer string) ([]string, error) {
	payer = repository.SanitizeName(payer)
	if payer == "" {
		return nil, ErrRequiredArgumentMissing
	}
	removed, err := ls.repo.RemoveSubscriptionsByPayer(payer)
	if err != nil {
		return nil, err
	}
	ts := repository.ReadableTimestamp()
	if len(removed) == 0 {
		_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - You have no active subscriptions to cancel.", ts))
		return nil, ErrNoSubscription
	}
	for _, payee := range removed {
		_ = ls.repo.AddNotification(payee, fmt.Sprintf("%s - %s cancelled their subscription to pay you.", ts, payer))
	}
	_ = ls.repo.AddNotification(payer, fmt.Sprintf("%s - You cancelled all your active subscriptions (%s).", ts, strings.Join(removed, ", ")))
	return removed, nil
}

// FoundCompany implements Service. The company name is derived from the
// founder; one company per founder.
func (ls ledgerService) FoundCompany(_ context.Context, founder string, initial decimal.Decimal) (*repository.Company, error) {
	founder = repository.SanitizeName(founder)
	if founder == "" {
		return nil, ErrRequiredArgumentMissing
	}
	if !initial.IsPositive() {
		return nil, ErrInvalidAmount
	}
	initial = initial.Round(1)
	name := founder + "company"
	existing, err := ls.repo.CompanyData(name)
	if err != nil {
		return nil, err
	}
	ts := repository.ReadableTimestamp()
	if existing != nil {
		_ = ls.repo.AddNotification(founder, fmt.Sprintf("%s - You already own a company: %s. You cannot found another one.", ts, name))
		return nil, ErrCompanyExists
	}
	founderBalance, err := ls.repo.Balance(founder)
	if err != nil {
		return nil, err
	}
	if founderBalance.LessThan(initial) {
		_ = ls.repo.AddNotification(founder, fmt.Sprintf("%s - Insufficient balance (%s bits) to fund your new company with %s bits.",
			ts, founderBalance.StringFixed(1), initial.StringFixed(1)))
		return nil, ErrInsufficientFunds
	}
	if err := ls.repo.FundNewAccount(founder, name, initial); err != nil {
		return nil, err
	}
	if _, err := ls.repo.AppendTransaction(founder, name, initial); err != nil {
		return nil, err
	}
	created, err := ls.repo.AddCompany(name, founder)
	if err != nil {
		return nil, err
	}
	if !created {
		_ = ls.repo.AddNotification(founder, fmt.Sprintf("%s - Failed to create company %s. It might already exist.", ts, name))
		return nil, ErrCompanyExists
	}
	newBalance, _ := ls.repo.Balance(founder)
	_ = ls.repo.AddNotification(founder, fmt.Sprintf("%s - You founded a new company: %s with %s bits! Your personal balance: %s",
		ts, name, initial.StringFixed(1), newBalance.StringFixed(1)))
	return &repository.Company{Name: name, Founder: founder, Members: []string{founder}}, nil
}

// AddCompanyMember implements Service. Only existing members may add.
func (ls ledgerService) AddCompanyMember(_ context.Context, actor, company, user string) error {
	actor = repository.SanitizeName(actor)
	company = repository.SanitizeName(company)
	user = repository.SanitizeName(user)
	if actor == "" || company == "" || user == "" {
		return ErrRequiredArgumentMissing
	}
	data, err := ls.repo.CompanyData(company)
	if err != nil {
		return err
	}
	ts := repository.ReadableTimestamp()
	if data == nil {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - Company '%s' not found.", ts, company))
		return ErrCompanyNotFound
	}
	member, err := ls.repo.IsCompanyMember(company, actor)
	if err != nil {
		return err
	}
	if !member {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - You are not an authorized member of '%s'.", ts, company))
		return ErrNotCompanyMember
	}
	added, err := ls.repo.AddCompanyMember(company, user)
	if err != nil {
		return err
	}
	if !added {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - %s is already a member of '%s'.", ts, user, company))
		return ErrAlreadyCompanyMember
	}
	_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - You added %s to '%s'.", ts, user, company))
	_ = ls.repo.AddNotification(user, fmt.Sprintf("%s - You have been added as an authorized member to company '%s' by %s!", ts, company, actor))
	return nil
}

// CompanySend implements Service: an authorized member sends company funds.
func (ls ledgerService) CompanySend(_ context.Context, actor, company, recipient string, amount decimal.Decimal) (*repository.Transaction, error) {
	actor = repository.SanitizeName(actor)
	company = repository.SanitizeName(company)
	recipient = repository.SanitizeName(recipient)
	if actor == "" || company == "" || recipient == "" {
		return nil, ErrRequiredArgumentMissing
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if actor == recipient {
		return nil, ErrSelfTransfer
	}
	amount = amount.Round(1)
	data, err := ls.repo.CompanyData(company)
	if err != nil {
		return nil, err
	}
	ts := repository.ReadableTimestamp()
	if data == nil {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - Company '%s' not found.", ts, company))
		return nil, ErrCompanyNotFound
	}
	member, err := ls.repo.IsCompanyMember(company, actor)
	if err != nil {
		return nil, err
	}
	if !member {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - You are not an authorized member of '%s' to send funds.", ts, company))
		return nil, ErrNotCompanyMember
	}
	companyBalance, err := ls.repo.Balance(company)
	if err != nil {
		return nil, err
	}
	if companyBalance.LessThan(amount) {
		_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - Company '%s' has insufficient balance (%s bits) to send %s bits to %s.",
			ts, company, companyBalance.StringFixed(1), amount.StringFixed(1), recipient))
		return nil, ErrInsufficientFunds
	}
	if _, err := ls.repo.Balance(recipient); err != nil {
		return nil, err
	}
	if err := ls.repo.TransferBalances(company, recipient, amount); err != nil {
		return nil, err
	}
	txn, err := ls.repo.AppendTransaction(company, recipient, amount)
	if err != nil {
		return nil, err
	}
	newBalance, _ := ls.repo.Balance(company)
	_ = ls.repo.AddNotification(recipient, fmt.Sprintf("%s - Company '%s' sent you %s bits!", ts, company, amount.StringFixed(1)))
	_ = ls.repo.AddNotification(actor, fmt.Sprintf("%s - You sent %s bits from '%s' to %s. Company balance: %s",
		ts, amount.StringFixed(1), company, recipient, newBalance.StringFixed(1)))
	return txn, nil
}

// Notify implements Service.
func (ls ledgerService) Notify(_ context.Context, user, message string) error {
	return ls.repo.AddNotification(user, message)
}

// Notifications implements Service.
func (ls ledgerService) Notifications(_ context.Context, user string) ([]string, error) {
	return ls.repo.Notifications(user)
}

// ClearNotifications implements Service.
func (ls ledgerService) ClearNotifications(_ context.Context, user string) error {
	return ls.repo.ClearNotifications(user)
}

// Preferences implements Service.
func (ls ledgerService) Preferences(_ context.Context, user string) (repository.Preferences, error) {
	return ls.repo.GetPreferences(user)
}

// SetPreferences implements Service.
func (ls ledgerService) SetPreferences(_ context.Context, user, theme, mute string) error {
	return ls.repo.SetPreferences(user, theme, mute)
}

// Leaderboard implements Service.
func (ls ledgerService) Leaderboard(_ context.Context, limit, offset int) ([]repository.LeaderboardEntry, error) {
	return ls.repo.Leaderboard(limit, offset)
}

// Subscriptions implements Service.
func (ls ledgerService) Subscriptions(_ context.Context, payer string) ([]repository.Subscription, error) {
	return ls.repo.SubscriptionsByPayer(payer)
}

// Company implements Service. A nil company with nil error means not found.
func (ls ledgerService) Company(_ context.Context, name string) (*repository.Company, error) {
	return ls.repo.CompanyData(name)
}
