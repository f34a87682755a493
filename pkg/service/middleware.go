package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"

	"github.com/ck4445/ECKOBits/pkg/repository"
)

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(Service) Service

// LoggingMiddleware takes a logger as a dependency
// and returns a ServiceMiddleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) HealthCheck(ctx context.Context) (success bool, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "HealthCheck", "success", success, "err", err)
	}()
	return mw.next.HealthCheck(ctx)
}

func (mw loggingMiddleware) Balance(ctx context.Context, user string) (balance decimal.Decimal, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Balance", "user", user, "err", err)
	}()
	return mw.next.Balance(ctx, user)
}

func (mw loggingMiddleware) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (_ *repository.Transaction, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Transfer", "from", from, "to", to, "amount", amount, "err", err)
	}()
	return mw.next.Transfer(ctx, from, to, amount)
}

func (mw loggingMiddleware) Subscribe(ctx context.Context, payer, payee string, amount decimal.Decimal, cycle string) (_ *repository.Subscription, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "Subscribe", "payer", payer, "payee", payee, "amount", amount, "cycle", cycle, "err", err)
	}()
	return mw.next.Subscribe(ctx, payer, payee, amount, cycle)
}

func (mw loggingMiddleware) CancelSubscription(ctx context.Context, payer, payee string) (err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "CancelSubscription", "payer", payer, "payee", payee, "err", err)
	}()
	return mw.next.CancelSubscription(ctx, payer, payee)
}

func (mw loggingMiddleware) CancelAllSubscriptions(ctx context.Context, payer string) (_ []string, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "CancelAllSubscriptions", "payer", payer, "err", err)
	}()
	return mw.next.CancelAllSubscriptions(ctx, payer)
}

func (mw loggingMiddleware) FoundCompany(ctx context.Context, founder string, initial decimal.Decimal) (_ *repository.Company, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "FoundCompany", "founder", founder, "initial", initial, "err", err)
	}()
	return mw.next.FoundCompany(ctx, founder, initial)
}

func (mw loggingMiddleware) AddCompanyMember(ctx context.Context, actor, company, user string) (err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "AddCompanyMember", "actor", actor, "company", company, "user", user, "err", err)
	}()
	return mw.next.AddCompanyMember(ctx, actor, company, user)
}

func (mw loggingMiddleware) CompanySend(ctx context.Context, actor, company, recipient string, amount decimal.Decimal) (_ *repository.Transaction, err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "CompanySend", "actor", actor, "company", company, "recipient", recipient, "amount", amount, "err", err)
	}()
	return mw.next.CompanySend(ctx, actor, company, recipient, amount)
}

func (mw loggingMiddleware) Notify(ctx context.Context, user, message string) (err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Notify", "user", user, "err", err)
	}()
	return mw.next.Notify(ctx, user, message)
}

func (mw loggingMiddleware) Notifications(ctx context.Context, user string) (_ []string, err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Notifications", "user", user, "err", err)
	}()
	return mw.next.Notifications(ctx, user)
}

func (mw loggingMiddleware) ClearNotifications(ctx context.Context, user string) (err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "ClearNotifications", "user", user, "err", err)
	}()
	return mw.next.ClearNotifications(ctx, user)
}

func (mw loggingMiddleware) Preferences(ctx context.Context, user string) (_ repository.Preferences, err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Preferences", "user", user, "err", err)
	}()
	return mw.next.Preferences(ctx, user)
}

func (mw loggingMiddleware) SetPreferences(ctx context.Context, user, theme, mute string) (err error) {
	defer func() {
		_ = level.Info(mw.logger).Log("method", "SetPreferences", "user", user, "theme", theme, "mute", mute, "err", err)
	}()
	return mw.next.SetPreferences(ctx, user, theme, mute)
}

func (mw loggingMiddleware) Leaderboard(ctx context.Context, limit, offset int) (_ []repository.LeaderboardEntry, err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Leaderboard", "limit", limit, "offset", offset, "err", err)
	}()
	return mw.next.Leaderboard(ctx, limit, offset)
}

func (mw loggingMiddleware) Subscriptions(ctx context.Context, payer string) (_ []repository.Subscription, err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Subscriptions", "payer", payer, "err", err)
	}()
	return mw.next.Subscriptions(ctx, payer)
}

func (mw loggingMiddleware) Company(ctx context.Context, name string) (_ *repository.Company, err error) {
	defer func() {
		_ = level.Debug(mw.logger).Log("method", "Company", "name", name, "err", err)
	}()
	return mw.next.Company(ctx, name)
}
