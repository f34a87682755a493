// +build !test at

package test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/godog"
	"github.com/DATA-DOG/godog/gherkin"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"

	"github.com/ck4445/ECKOBits/pkg/command"
	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

type ledgerFeature struct {
	logger log.Logger

	dataDir   string
	repo      *repository.Repository
	svc       service.Service
	processor *command.Processor
}

func (lf *ledgerFeature) init() {
	// Logging domain.
	{
		lf.logger = log.NewLogfmtLogger(os.Stderr)
		lf.logger = level.NewFilter(lf.logger, level.AllowError())
		lf.logger = log.With(lf.logger, "ts", log.DefaultTimestampUTC)
		lf.logger = log.With(lf.logger, "caller", log.DefaultCaller)
	}
}

// reset rebuilds the whole ledger on a fresh data directory, so scenarios
// never see each other's state.
func (lf *ledgerFeature) reset() {
	lf.deInit()
	dir, err := os.MkdirTemp("", "eckobits-test-")
	if err != nil {
		_ = level.Error(lf.logger).Log("during", "MkdirTemp", "err", err)
		os.Exit(1)
	}
	lf.dataDir = dir
	lf.repo, err = repository.New(dir, lf.logger)
	if err != nil {
		_ = level.Error(lf.logger).Log("during", "repository init", "err", err)
		os.Exit(1)
	}
	lf.svc = service.NewLedgerService(lf.repo)
	lf.processor = command.New(lf.svc, lf.logger)
}

func (lf *ledgerFeature) deInit() {
	if lf.dataDir != "" {
		_ = os.RemoveAll(lf.dataDir)
		lf.dataDir = ""
	}
}

func (lf *ledgerFeature) theFollowingBalancesExist(recordList *gherkin.DataTable) error {
	head := recordList.Rows[0].Cells
	for i := 1; i < len(recordList.Rows); i++ {
		var user, balance string
		for n, cell := range recordList.Rows[i].Cells {
			switch head[n].Value {
			case "user":
				user = cell.Value
			case "balance":
				balance = cell.Value
			}
		}
		amount, err := decimal.NewFromString(balance)
		if err != nil {
			return fmt.Errorf("bad balance %q for %q: %v", balance, user, err)
		}
		if err := lf.repo.SetBalance(user, amount); err != nil {
			return err
		}
	}
	return nil
}

func (lf *ledgerFeature) aCommentFromSays(author, content string) error {
	parts := strings.Split(strings.TrimSpace(content), " ")
	lf.processor.Process(context.Background(), author, parts)
	return nil
}

func (lf *ledgerFeature) theBalanceOfShouldBe(user, expected string) error {
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return fmt.Errorf("bad expected balance %q: %v", expected, err)
	}
	got, err := lf.repo.Balance(user)
	if err != nil {
		return err
	}
	if !got.Equal(want) {
		return fmt.Errorf("balance of %s should be %s, got %s", user, want, got)
	}
	return nil
}

func (lf *ledgerFeature) shouldHaveANotificationContaining(user, fragment string) error {
	entries, err := lf.repo.Notifications(user)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.Contains(entry, fragment) {
			return nil
		}
	}
	return fmt.Errorf("no notification of %s contains %q, have %v", user, fragment, entries)
}

func (lf *ledgerFeature) shouldHaveAnActiveSubscriptionTo(payer, payee string) error {
	subs, err := lf.repo.SubscriptionsByPayer(payer)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.Payee == payee {
			return nil
		}
	}
	return fmt.Errorf("%s has no active subscription to %s", payer, payee)
}

func (lf *ledgerFeature) shouldHaveNoActiveSubscriptions(payer string) error {
	subs, err := lf.repo.SubscriptionsByPayer(payer)
	if err != nil {
		return err
	}
	if len(subs) != 0 {
		return fmt.Errorf("%s should have no subscriptions, got %d", payer, len(subs))
	}
	return nil
}

func (lf *ledgerFeature) theCompanyShouldExistWithFounder(name, founder string) error {
	c, err := lf.repo.CompanyData(name)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("company %s does not exist", name)
	}
	if c.Founder != founder {
		return fmt.Errorf("founder of %s should be %s, got %s", name, founder, c.Founder)
	}
	return nil
}

func (lf *ledgerFeature) theTransactionLogShouldContainRecords(count int) error {
	txns, err := lf.repo.Transactions()
	if err != nil {
		return err
	}
	if len(txns) != count {
		return fmt.Errorf("transaction log should contain %d records, got %d", count, len(txns))
	}
	return nil
}

// FeatureContext - init and route steps
func FeatureContext(s *godog.Suite) {
	ledger := &ledgerFeature{}
	ledger.init()
	s.Step(`^the following balances exist:$`, ledger.theFollowingBalancesExist)
	s.Step(`^a comment from "([^"]*)" says "([^"]*)"$`, ledger.aCommentFromSays)
	s.Step(`^the balance of "([^"]*)" should be "([^"]*)"$`, ledger.theBalanceOfShouldBe)
	s.Step(`^"([^"]*)" should have a notification containing "([^"]*)"$`, ledger.shouldHaveANotificationContaining)
	s.Step(`^"([^"]*)" should have an active subscription to "([^"]*)"$`, ledger.shouldHaveAnActiveSubscriptionTo)
	s.Step(`^"([^"]*)" should have no active subscriptions$`, ledger.shouldHaveNoActiveSubscriptions)
	s.Step(`^the company "([^"]*)" should exist with founder "([^"]*)"$`, ledger.theCompanyShouldExistWithFounder)
	s.Step(`^the transaction log should contain (\d+) records?$`, ledger.theTransactionLogShouldContainRecords)
	s.BeforeScenario(func(interface{}) {
		ledger.reset()
	})
	s.AfterSuite(ledger.deInit)
}

// TestMain is entry point
func TestMain(m *testing.M) {
	var opt = godog.Options{
		Paths: []string{"features"},
	}
	godog.BindFlags("godog.", flag.CommandLine, &opt)
	flag.Parse()
	opt.Paths = flag.Args()

	status := godog.RunWithOptions("godogs", func(s *godog.Suite) {
		FeatureContext(s)
	}, opt)

	if st := m.Run(); st > status {
		status = st
	}
	os.Exit(status)
}
