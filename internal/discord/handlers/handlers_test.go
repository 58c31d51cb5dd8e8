package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/pairing"
	"github.com/oatsaysai/partner-ledger/internal/store/memory"
	"github.com/oatsaysai/partner-ledger/pkg/rates"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) context.Context {
	t.Helper()
	st := memory.New()
	rec := audit.NewRecorder(st)
	fixed := rates.Fixed{Base: "USD", Table: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.5")}}
	SetServices(ledger.NewService(st, rec, fixed), pairing.NewService(st, rec))
	t.Cleanup(func() { SetServices(nil, nil) })
	return context.Background()
}

// run sends one chat line as discordID
func run(t *testing.T, ctx context.Context, h Handler, discordID, line string) (string, error) {
	t.Helper()
	return Run(ctx, h, discordID, discordID, strings.Fields(line))
}

func mustRun(t *testing.T, ctx context.Context, h Handler, discordID, line string) string {
	t.Helper()
	out, err := run(t, ctx, h, discordID, line)
	require.NoError(t, err, line)
	return out
}

func TestRunWithoutServices(t *testing.T) {
	SetServices(nil, nil)
	_, err := Run(context.Background(), HandleHelpCommand, "1", "x", []string{"!help"})
	assert.Error(t, err)
}

func TestWalletFlow(t *testing.T) {
	ctx := setup(t)

	out := mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet personal USD 100 Cash")
	assert.Contains(t, out, "Cash")
	mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet personal USD 0 Savings")

	mustRun(t, ctx, HandleExpense, "alice", "!expense cash 40 food lunch")

	_, err := run(t, ctx, HandleExpense, "alice", "!expense cash 1,000.00 food")
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientFunds))
	assert.NotContains(t, errorText(err), "went wrong", "business errors keep their message")

	mustRun(t, ctx, HandleTransfer, "alice", "!transfer cash savings 30 rainy day")

	out = mustRun(t, ctx, HandleWallets, "alice", "!wallets EUR")
	assert.Contains(t, out, "$30.00")
	assert.Contains(t, out, "Total:")

	out = mustRun(t, ctx, HandleHistory, "alice", "!history cash 5")
	assert.Contains(t, out, "lunch")
	assert.Contains(t, out, "-$40.00")

	out = mustRun(t, ctx, HandleStats, "alice", "!stats 7 USD")
	assert.Contains(t, out, "Expense: $40.00")
	assert.Contains(t, out, "(2 transactions)")
}

func TestUsageErrors(t *testing.T) {
	ctx := setup(t)

	for _, tt := range []struct {
		h    Handler
		line string
	}{
		{HandleRegister, "!register"},
		{HandleNewWallet, "!newwallet personal USD"},
		{HandleIncome, "!income cash"},
		{HandleTransfer, "!transfer a b"},
		{HandleNewDebt, "!newdebt we_owe USD 10"},
		{HandlePayDebt, "!paydebt loan"},
		{HandleNewGoal, "!newgoal USD 10"},
		{HandleContribute, "!contribute goal cash"},
		{HandlePartner, "!partner"},
		{HandlePartner, "!partner dance"},
		{HandleStats, "!stats -3"},
	} {
		_, err := run(t, ctx, tt.h, "alice", tt.line)
		var u usageError
		assert.ErrorAs(t, err, &u, tt.line)
		assert.True(t, strings.HasPrefix(errorText(err), "usage:"), tt.line)
	}
}

func TestWalletReferences(t *testing.T) {
	ctx := setup(t)
	mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet personal USD 10 Cash")
	mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet personal USD 10 cash")

	_, err := run(t, ctx, HandleIncome, "alice", "!income cash 5")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "ambiguous names are rejected")

	_, err = run(t, ctx, HandleIncome, "alice", "!income wallet-that-does-not-exist 5")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = run(t, ctx, HandleIncome, "alice", "!income cash abc")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPartnerFlow(t *testing.T) {
	ctx := setup(t)

	mustRun(t, ctx, HandleRegister, "alice", "!register alice@example.com")
	mustRun(t, ctx, HandleRegister, "bob", "!register Bob@Example.com")

	_, err := run(t, ctx, HandlePartner, "bob", "!partner accept")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "nothing to accept yet")

	out := mustRun(t, ctx, HandlePartner, "alice", "!partner request bob@example.com")
	assert.Contains(t, out, "sent")

	out = mustRun(t, ctx, HandlePartner, "bob", "!partner status")
	assert.Contains(t, out, "Incoming request")
	out = mustRun(t, ctx, HandlePartner, "alice", "!partner status")
	assert.Contains(t, out, "Waiting")

	mustRun(t, ctx, HandlePartner, "bob", "!partner accept")
	out = mustRun(t, ctx, HandlePartner, "alice", "!partner status")
	assert.Contains(t, out, "bob")

	// shared wallets show up for both partners
	mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet shared USD 50 Joint")
	out = mustRun(t, ctx, HandleWallets, "bob", "!wallets")
	assert.Contains(t, out, "Joint")
	mustRun(t, ctx, HandleExpense, "bob", "!expense joint 20 food")

	mustRun(t, ctx, HandlePartner, "bob", "!partner unpair")
	_, err = run(t, ctx, HandlePartner, "alice", "!partner unpair")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestPartnerCancel(t *testing.T) {
	ctx := setup(t)
	mustRun(t, ctx, HandleRegister, "alice", "!register alice@example.com")
	mustRun(t, ctx, HandleRegister, "bob", "!register bob@example.com")

	mustRun(t, ctx, HandlePartner, "alice", "!partner request bob@example.com")
	mustRun(t, ctx, HandlePartner, "alice", "!partner cancel")

	_, err := run(t, ctx, HandlePartner, "bob", "!partner decline")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDebtAndGoalFlow(t *testing.T) {
	ctx := setup(t)
	mustRun(t, ctx, HandleNewWallet, "alice", "!newwallet personal USD 1000 Cash")

	mustRun(t, ctx, HandleNewDebt, "alice", "!newdebt we_owe USD 500 Loan")
	out := mustRun(t, ctx, HandlePayDebt, "alice", "!paydebt loan 200 cash")
	assert.Contains(t, out, "$300.00 left")
	out = mustRun(t, ctx, HandlePayDebt, "alice", "!paydebt loan 300")
	assert.Contains(t, out, "settled")

	_, err := run(t, ctx, HandleNewDebt, "alice", "!newdebt internal USD 10 Tickets")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "internal debts need a partner")

	out = mustRun(t, ctx, HandleDebts, "alice", "!debts")
	assert.Contains(t, out, "Loan")

	mustRun(t, ctx, HandleNewGoal, "alice", "!newgoal USD 400 Trip")
	mustRun(t, ctx, HandleContribute, "alice", "!contribute trip cash 100 first")
	out = mustRun(t, ctx, HandleGoals, "alice", "!goals")
	assert.Contains(t, out, "(25%)")

	_, err = run(t, ctx, HandleWithdraw, "alice", "!withdraw trip cash 150")
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientGoalFunds))
	out = mustRun(t, ctx, HandleWithdraw, "alice", "!withdraw trip cash 60")
	assert.Contains(t, out, "Withdrew $60.00")

	out = mustRun(t, ctx, HandleWallets, "alice", "!wallets")
	assert.Contains(t, out, "$460.00")
}

func TestHelp(t *testing.T) {
	ctx := setup(t)
	out := mustRun(t, ctx, HandleHelpCommand, "alice", "!help")
	for _, cmd := range []string{"!register", "!partner request", "!paydebt", "!contribute", "!stats"} {
		assert.Contains(t, out, cmd)
	}
}
