// Package command turns a comment's words into ledger operations. It is the
// only mutating caller of the service: parse-level rejections are reported
// to the sender as notifications, semantic rejections come back from the
// service as sentinel errors and are translated here when the service has
// not already written a message of its own.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"

	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

var commands = map[string]bool{
	"s":      true,
	"sub":    true,
	"can":    true,
	"canall": true,
	"found":  true,
	"add":    true,
	"sendco": true,
}

// Recognized reports whether the first word of a comment names a command.
// The word is case-folded and leading "!" stripped before matching.
func Recognized(word string) bool {
	return commands[normalize(word)]
}

func normalize(word string) string {
	return strings.TrimLeft(strings.ToLower(word), "!")
}

// Processor dispatches parsed comment commands to the ledger service.
type Processor struct {
	svc    service.Service
	logger log.Logger
}

// New returns a command Processor.
func New(svc service.Service, logger log.Logger) *Processor {
	return &Processor{
		svc:    svc,
		logger: log.With(logger, "component", "command"),
	}
}

// Process handles one comment: parts are the whitespace-split words of its
// text, author is the raw commenting identity. Every outcome, success or
// failure, ends up as notifications; nothing is returned to the feed.
func (p *Processor) Process(ctx context.Context, author string, parts []string) {
	if len(parts) == 0 {
		return
	}
	sender := repository.SanitizeName(author)
	switch normalize(parts[0]) {
	case "s":
		p.send(ctx, sender, parts)
	case "sub":
		p.subscribe(ctx, sender, parts)
	case "can":
		p.cancel(ctx, sender, parts)
	case "canall":
		p.cancelAll(ctx, sender, parts)
	case "found":
		p.found(ctx, sender, parts)
	case "add":
		p.addMember(ctx, sender, parts)
	case "sendco":
		p.companySend(ctx, sender, parts)
	}
}

func (p *Processor) notify(ctx context.Context, user, text string) {
	_ = p.svc.Notify(ctx, user, fmt.Sprintf("%s - %s", repository.ReadableTimestamp(), text))
}

func (p *Processor) send(ctx context.Context, sender string, parts []string) {
	if len(parts) != 3 {
		p.notify(ctx, sender, "Invalid s command format. Use s [user] [amount].")
		return
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		p.notify(ctx, sender, "Invalid amount for !s command.")
		return
	}
	receiver := repository.SanitizeName(parts[1])
	_, err = p.svc.Transfer(ctx, sender, receiver, amount.Round(1))
	switch err {
	case nil:
		_ = level.Info(p.logger).Log("command", "s", "sender", sender, "receiver", receiver, "amount", amount)
	case service.ErrSelfTransfer:
		p.notify(ctx, sender, "You cannot send bits to yourself.")
	case service.ErrInvalidAmount:
		p.notify(ctx, sender, "Amount must be positive for !s command.")
	case service.ErrRequiredArgumentMissing:
		p.notify(ctx, sender, "Invalid s command format. Use s [user] [amount].")
	}
}

func (p *Processor) subscribe(ctx context.Context, sender string, parts []string) {
	if len(parts) != 4 {
		p.notify(ctx, sender, "Invalid sub command format. Use sub [user] [amount] [daily/weekly/monthly].")
		return
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		p.notify(ctx, sender, "Invalid amount for !sub command.")
		return
	}
	payee := repository.SanitizeName(parts[1])
	cycle := strings.ToLower(parts[3])
	_, err = p.svc.Subscribe(ctx, sender, payee, amount.Round(1), cycle)
	switch err {
	case nil:
		_ = level.Info(p.logger).Log("command", "sub", "payer", sender, "payee", payee, "amount", amount, "cycle", cycle)
	case service.ErrUnknownCycle:
		p.notify(ctx, sender, "Invalid cycle type for !sub. Use daily, weekly, or monthly.")
	case service.ErrSelfTransfer:
		p.notify(ctx, sender, "You cannot subscribe to yourself.")
	case service.ErrInvalidAmount:
		p.notify(ctx, sender, "Subscription amount must be positive.")
	case service.ErrRequiredArgumentMissing:
		p.notify(ctx, sender, "Invalid sub command format. Use sub [user] [amount] [daily/weekly/monthly].")
	}
}

func (p *Processor) cancel(ctx context.Context, sender string, parts []string) {
	if len(parts) != 2 {
		p.notify(ctx, sender, "Invalid can command format. Use can [user].")
		return
	}
	payee := repository.SanitizeName(parts[1])
	if err := p.svc.CancelSubscription(ctx, sender, payee); err == nil {
		_ = level.Info(p.logger).Log("command", "can", "payer", sender, "payee", payee)
	}
}

func (p *Processor) cancelAll(ctx context.Context, sender string, parts []string) {
	if len(parts) != 1 {
		p.notify(ctx, sender, "Invalid canall command format. Use canall.")
		return
	}
	if _, err := p.svc.CancelAllSubscriptions(ctx, sender); err == nil {
		_ = level.Info(p.logger).Log("command", "canall", "payer", sender)
	}
}

func (p *Processor) found(ctx context.Context, sender string, parts []string) {
	if len(parts) != 2 {
		p.notify(ctx, sender, "Invalid found command format. Use found [initial_amount].")
		return
	}
	initial, err := decimal.NewFromString(parts[1])
	if err != nil {
		p.notify(ctx, sender, "Invalid initial amount for !found command.")
		return
	}
	_, err = p.svc.FoundCompany(ctx, sender, initial.Round(1))
	switch err {
	case nil:
		_ = level.Info(p.logger).Log("command", "found", "founder", sender, "initial", initial)
	case service.ErrInvalidAmount:
		p.notify(ctx, sender, "Initial amount for company must be positive.")
	}
}

func (p *Processor) addMember(ctx context.Context, sender string, parts []string) {
	if len(parts) != 3 {
		p.notify(ctx, sender, "Invalid add command format. Use add [company_name] [username_to_add].")
		return
	}
	company := repository.SanitizeName(parts[1])
	user := repository.SanitizeName(parts[2])
	if err := p.svc.AddCompanyMember(ctx, sender, company, user); err == nil {
		_ = level.Info(p.logger).Log("command", "add", "actor", sender, "company", company, "user", user)
	}
}

func (p *Processor) companySend(ctx context.Context, sender string, parts []string) {
	if len(parts) != 4 {
		p.notify(ctx, sender, "Invalid sendco command format. Use sendco [company_name] [recipient] [amount].")
		return
	}
	amount, err := decimal.NewFromString(parts[3])
	if err != nil {
		p.notify(ctx, sender, "Invalid amount for !sendco command.")
		return
	}
	company := repository.SanitizeName(parts[1])
	recipient := repository.SanitizeName(parts[2])
	_, err = p.svc.CompanySend(ctx, sender, company, recipient, amount.Round(1))
	switch err {
	case nil:
		_ = level.Info(p.logger).Log("command", "sendco", "actor", sender, "company", company, "recipient", recipient, "amount", amount)
	case service.ErrInvalidAmount:
		p.notify(ctx, sender, "Amount must be positive for !sendco command.")
	case service.ErrSelfTransfer:
		p.notify(ctx, sender, "You cannot send bits to yourself from a company account.")
	}
}
