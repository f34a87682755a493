package command

import (
	"context"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

func newTestProcessor(t *testing.T) (*Processor, *repository.Repository) {
	t.Helper()
	repo, err := repository.New(t.TempDir(), log.NewNopLogger())
	require.NoError(t, err)
	svc := service.NewLedgerService(repo)
	return New(svc, log.NewNopLogger()), repo
}

func lastNotification(t *testing.T, repo *repository.Repository, user string) string {
	t.Helper()
	entries, err := repo.Notifications(user)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func TestRecognized(t *testing.T) {
	assert.True(t, Recognized("s"))
	assert.True(t, Recognized("!s"))
	assert.True(t, Recognized("!SUB"))
	assert.True(t, Recognized("canall"))
	assert.False(t, Recognized("hello"))
	assert.False(t, Recognized(""))
}

func TestSendCommand(t *testing.T) {
	p, repo := newTestProcessor(t)

	p.Process(context.Background(), "alice", []string{"s", "bob", "30"})

	aliceBal, err := repo.Balance("alice")
	require.NoError(t, err)
	assert.Equal(t, "70", aliceBal.String())
	bobBal, err := repo.Balance("bob")
	require.NoError(t, err)
	assert.Equal(t, "130", bobBal.String())

	txns, err := repo.Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 1)

	assert.Contains(t, lastNotification(t, repo, "bob"), "alice gave you 30.0 bits via comment!")
	assert.Contains(t, lastNotification(t, repo, "alice"), "You gave 30.0 bits to bob via comment. Your new balance: 70.0")
}

func TestSendCommandRejections(t *testing.T) {
	p, repo := newTestProcessor(t)

	p.Process(context.Background(), "alice", []string{"s", "bob"})
	assert.Contains(t, lastNotification(t, repo, "alice"), "Invalid s command format. Use s [user] [amount].")

	p.Process(context.Background(), "alice", []string{"s", "bob", "lots"})
	assert.Contains(t, lastNotification(t, repo, "alice"), "Invalid amount for !s command.")

	p.Process(context.Background(), "alice", []string{"s", "alice", "10"})
	assert.Contains(t, lastNotification(t, repo, "alice"), "You cannot send bits to yourself.")

	p.Process(context.Background(), "alice", []string{"s", "bob", "-5"})
	assert.Contains(t, lastNotification(t, repo, "alice"), "Amount must be positive for !s command.")

	// none of the rejected attempts moved funds or hit the audit log
	txns, err := repo.Transactions()
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestSubscribeCommandInsufficientFunds(t *testing.T) {
	p, repo := newTestProcessor(t)
	require.NoError(t, repo.SetBalance("alice", decimal.NewFromInt(10)))

	p.Process(context.Background(), "alice", []string{"sub", "bob", "50", "weekly"})

	subs, err := repo.AllSubscriptions()
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Contains(t, lastNotification(t, repo, "alice"), "Insufficient balance (10.0 bits) for initial subscription payment of 50.0 bits to bob.")
}

func TestSubscribeCommandBadCycle(t *testing.T) {
	p, repo := newTestProcessor(t)

	p.Process(context.Background(), "alice", []string{"sub", "bob", "5", "hourly"})
	assert.Contains(t, lastNotification(t, repo, "alice"), "Invalid cycle type for !sub. Use daily, weekly, or monthly.")
}

func TestSubscribeAndCancel(t *testing.T) {
	p, repo := newTestProcessor(t)

	p.Process(context.Background(), "alice", []string{"sub", "bob", "5", "daily"})
	subs, err := repo.SubscriptionsByPayer("alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	// the first payment settles right away
	aliceBal, err := repo.Balance("alice")
	require.NoError(t, err)
	assert.Equal(t, "95", aliceBal.String())

	p.Process(context.Background(), "alice", []string{"can", "bob"})
	subs, err = repo.SubscriptionsByPayer("alice")
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Contains(t, lastNotification(t, repo, "bob"), "alice cancelled their subscription to pay you.")
}

func TestFoundAndCompanyCommands(t *testing.T) {
	p, repo := newTestProcessor(t)

	p.Process(context.Background(), "alice", []string{"found", "20"})

	company, err := repo.CompanyData("alicecompany")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "alice", company.Founder)
	companyBal, err := repo.Balance("alicecompany")
	require.NoError(t, err)
	assert.Equal(t, "20", companyBal.String())

	p.Process(context.Background(), "alice", []string{"add", "alicecompany", "bob"})
	member, err := repo.IsCompanyMember("alicecompany", "bob")
	require.NoError(t, err)
	assert.True(t, member)

	p.Process(context.Background(), "bob", []string{"sendco", "alicecompany", "carol", "5"})
	companyBal, err = repo.Balance("alicecompany")
	require.NoError(t, err)
	assert.Equal(t, "15", companyBal.String())
	assert.Contains(t, lastNotification(t, repo, "carol"), "Company 'alicecompany' sent you 5.0 bits!")
}

func TestAuthorIdentityIsSanitized(t *testing.T) {
	p, repo := newTestProcessor(t)

	// "@Alice B" and "aliceb" are the same account
	p.Process(context.Background(), "@Alice B", []string{"s", "bob", "10"})
	bal, err := repo.Balance("aliceb")
	require.NoError(t, err)
	assert.Equal(t, "90", bal.String())
}
