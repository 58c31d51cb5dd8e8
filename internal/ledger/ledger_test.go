package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/store/memory"
	"github.com/oatsaysai/partner-ledger/internal/visibility"
	"github.com/oatsaysai/partner-ledger/pkg/rates"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *Service

	alice, bob, carol uuid.UUID
}

// newFixture creates alice, bob and carol. When paired is set alice and bob are partners.
func newFixture(t *testing.T, paired bool, rp rates.Provider) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		alice: uuid.New(),
		bob:   uuid.New(),
		carol: uuid.New(),
	}
	f.svc = NewService(f.store, audit.NewRecorder(f.store), rp)

	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		for name, id := range map[string]uuid.UUID{"alice": f.alice, "bob": f.bob, "carol": f.carol} {
			if err := tx.InsertUser(f.ctx, models.User{ID: id, Email: name + "@example.com", DisplayName: name}); err != nil {
				return err
			}
		}
		if !paired {
			return nil
		}
		if _, err := tx.SetPartner(f.ctx, f.alice, nil, &f.bob); err != nil {
			return err
		}
		_, err := tx.SetPartner(f.ctx, f.bob, nil, &f.alice)
		return err
	}))
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func (f *fixture) wallet(t *testing.T, owner uuid.UUID, kind models.WalletKind, cur, initial string) models.Wallet {
	t.Helper()
	w, err := f.svc.CreateWallet(f.ctx, owner, NewWallet{
		Name: string(kind) + " " + cur, Kind: kind, Currency: cur, InitialBalance: dec(initial),
	})
	require.NoError(t, err)
	return w
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var w models.Wallet
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		var err error
		w, err = tx.Wallet(f.ctx, id)
		return err
	}))
	return w.Balance
}

func (f *fixture) transactions(t *testing.T, includeDeleted bool) []models.Transaction {
	t.Helper()
	var out []models.Transaction
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListTransactions(f.ctx, store.TransactionFilter{IncludeDeleted: includeDeleted})
		return err
	}))
	return out
}

// requireReconstructed checks every live wallet balance against its initial balance
// plus the log of non-deleted transactions, without trusting the cached field.
func (f *fixture) requireReconstructed(t *testing.T) {
	t.Helper()
	txs := f.transactions(t, false)
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		wallets, err := tx.AllWallets(f.ctx)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			want := w.InitialBalance
			for _, tr := range txs {
				want = want.Add(tr.EffectOn(w.ID))
			}
			assert.True(t, want.Equal(w.Balance), "wallet %s: stored %s, reconstructed %s", w.Name, w.Balance, want)
			assert.False(t, w.Balance.IsNegative(), "wallet %s went negative", w.Name)
		}
		return nil
	}))
}

func (f *fixture) auditActions() []string {
	var out []string
	for _, e := range f.store.AuditEntries() {
		out = append(out, e.Action)
	}
	return out
}

func TestRecordTransaction_ExpenseThenTransfer(t *testing.T) {
	f := newFixture(t, false, nil)
	w1 := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")
	w2 := f.wallet(t, f.alice, models.WalletPersonal, "USD", "0")

	expense, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w1.ID, Kind: models.KindExpense, Amount: dec("40"), Currency: "usd", Category: models.CategoryFood,
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindExpense, expense.Kind)
	assert.Equal(t, "USD", expense.Currency)
	assert.Equal(t, models.SourceManual, expense.Source)
	assertAmount(t, "60", f.balance(t, w1.ID))
	require.Len(t, f.transactions(t, false), 1)

	_, err = f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w1.ID, DestinationWalletID: &w2.ID, Kind: models.KindTransfer, Amount: dec("30"), Currency: "USD",
	})
	require.NoError(t, err)
	assertAmount(t, "30", f.balance(t, w1.ID))
	assertAmount(t, "30", f.balance(t, w2.ID))

	txs := f.transactions(t, false)
	require.Len(t, txs, 2)
	assert.Equal(t, models.KindTransfer, txs[0].Kind)
	assert.Equal(t, models.CategoryTransfer, txs[0].Category)
	f.requireReconstructed(t)
	assert.Contains(t, f.auditActions(), "transaction.create")
}

func TestRecordTransaction_InsufficientFundsLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, false, nil)
	w1 := f.wallet(t, f.alice, models.WalletPersonal, "USD", "50")
	w2 := f.wallet(t, f.alice, models.WalletPersonal, "USD", "0")

	_, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w1.ID, Kind: models.KindExpense, Amount: dec("50.01"), Currency: "USD",
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	assert.Equal(t, apperr.KindInsufficientFunds, apperr.KindOf(err))

	_, err = f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w1.ID, DestinationWalletID: &w2.ID, Kind: models.KindTransfer, Amount: dec("80"), Currency: "USD",
	})
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	assertAmount(t, "50", f.balance(t, w1.ID))
	assertAmount(t, "0", f.balance(t, w2.ID))
	assert.Empty(t, f.transactions(t, true))

	_, err = f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w1.ID, Kind: models.KindExpense, Amount: dec("50"), Currency: "USD",
	})
	require.NoError(t, err, "spending the exact balance is allowed")
	assertAmount(t, "0", f.balance(t, w1.ID))
}

func TestRecordTransaction_Validation(t *testing.T) {
	f := newFixture(t, false, nil)
	w := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")

	tests := []struct {
		name string
		in   NewTransaction
	}{
		{"zero amount", NewTransaction{SourceWalletID: w.ID, Kind: models.KindExpense, Amount: decimal.Zero, Currency: "USD"}},
		{"negative amount", NewTransaction{SourceWalletID: w.ID, Kind: models.KindIncome, Amount: dec("-5"), Currency: "USD"}},
		{"unknown kind", NewTransaction{SourceWalletID: w.ID, Kind: "refund", Amount: dec("5"), Currency: "USD"}},
		{"unknown currency", NewTransaction{SourceWalletID: w.ID, Kind: models.KindIncome, Amount: dec("5"), Currency: "XXQ"}},
		{"category of another kind", NewTransaction{SourceWalletID: w.ID, Kind: models.KindIncome, Amount: dec("5"), Currency: "USD", Category: models.CategoryFood}},
		{"free-text category", NewTransaction{SourceWalletID: w.ID, Kind: models.KindExpense, Amount: dec("5"), Currency: "USD", Category: "coffee beans"}},
		{"destination on expense", NewTransaction{SourceWalletID: w.ID, DestinationWalletID: &w.ID, Kind: models.KindExpense, Amount: dec("5"), Currency: "USD"}},
		{"currency differs from wallet", NewTransaction{SourceWalletID: w.ID, Kind: models.KindExpense, Amount: dec("5"), Currency: "EUR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordTransaction(f.ctx, f.alice, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
	assertAmount(t, "100", f.balance(t, w.ID))
}

func TestAmounts_RespectCurrencyMinorUnit(t *testing.T) {
	f := newFixture(t, false, nil)
	usd := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")
	jpy := f.wallet(t, f.alice, models.WalletPersonal, "JPY", "1000")
	kwd := f.wallet(t, f.alice, models.WalletPersonal, "KWD", "10.125")

	for _, tt := range []struct {
		name   string
		wallet models.Wallet
		amount string
	}{
		{"half a cent", usd, "0.005"},
		{"sub-cent tail", usd, "10.001"},
		{"fractional yen", jpy, "0.5"},
		{"finer than fils", kwd, "0.0001"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
				SourceWalletID: tt.wallet.ID, Kind: models.KindExpense, Amount: dec(tt.amount), Currency: tt.wallet.Currency,
			})
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assertAmount(t, "100", f.balance(t, usd.ID))
	assertAmount(t, "1000", f.balance(t, jpy.ID))
	assertAmount(t, "10.125", f.balance(t, kwd.ID))
	assert.Empty(t, f.transactions(t, true))

	// trailing zeros and three-digit currencies are fine
	_, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: usd.ID, Kind: models.KindExpense, Amount: dec("0.100"), Currency: "USD",
	})
	require.NoError(t, err)
	_, err = f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: kwd.ID, Kind: models.KindExpense, Amount: dec("0.125"), Currency: "KWD",
	})
	require.NoError(t, err)
	assertAmount(t, "99.9", f.balance(t, usd.ID))
	assertAmount(t, "10", f.balance(t, kwd.ID))
	f.requireReconstructed(t)

	_, err = f.svc.CreateWallet(f.ctx, f.alice, NewWallet{Name: "Coins", Kind: models.WalletPersonal, Currency: "JPY", InitialBalance: dec("10.5")})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRecordTransaction_InvalidTransfer(t *testing.T) {
	f := newFixture(t, true, nil)
	shared := f.wallet(t, f.bob, models.WalletShared, "USD", "100")
	alicePersonal := f.wallet(t, f.alice, models.WalletPersonal, "USD", "0")
	bobEUR := f.wallet(t, f.bob, models.WalletPersonal, "EUR", "0")
	missing := uuid.New()

	tests := []struct {
		name string
		dst  *uuid.UUID
	}{
		{"missing destination", nil},
		{"same wallet", &shared.ID},
		{"unknown destination", &missing},
		{"partner's personal wallet", &alicePersonal.ID},
		{"different currency", &bobEUR.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordTransaction(f.ctx, f.bob, NewTransaction{
				SourceWalletID: shared.ID, DestinationWalletID: tt.dst, Kind: models.KindTransfer, Amount: dec("10"), Currency: "USD",
			})
			require.ErrorIs(t, err, apperr.ErrInvalidTransfer)
		})
	}
	assertAmount(t, "100", f.balance(t, shared.ID))
	assert.Empty(t, f.transactions(t, true))
}

func TestRecordTransaction_RechecksVisibility(t *testing.T) {
	f := newFixture(t, true, nil)
	alicePersonal := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")
	aliceShared := f.wallet(t, f.alice, models.WalletShared, "USD", "100")

	// the partner may read but not spend from a personal wallet
	_, err := f.svc.RecordTransaction(f.ctx, f.bob, NewTransaction{
		SourceWalletID: alicePersonal.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// both partners edit the shared wallet
	_, err = f.svc.RecordTransaction(f.ctx, f.bob, NewTransaction{
		SourceWalletID: aliceShared.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
	})
	require.NoError(t, err)

	// outsiders see nothing
	_, err = f.svc.RecordTransaction(f.ctx, f.carol, NewTransaction{
		SourceWalletID: aliceShared.ID, Kind: models.KindIncome, Amount: dec("10"), Currency: "USD",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.ListTransactions(f.ctx, f.carol, TransactionQuery{WalletID: &aliceShared.ID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// an unpair revokes the partner's access on the next write
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		if _, err := tx.SetPartner(f.ctx, f.alice, &f.bob, nil); err != nil {
			return err
		}
		_, err := tx.SetPartner(f.ctx, f.bob, &f.alice, nil)
		return err
	}))
	_, err = f.svc.RecordTransaction(f.ctx, f.bob, NewTransaction{
		SourceWalletID: aliceShared.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	assertAmount(t, "100", f.balance(t, alicePersonal.ID))
	assertAmount(t, "90", f.balance(t, aliceShared.ID))
	f.requireReconstructed(t)
}

func TestOwnerlessWallet_HiddenFromEveryCouple(t *testing.T) {
	f := newFixture(t, true, nil)
	dave := uuid.New()
	legacy := models.Wallet{
		ID: uuid.New(), Name: "Old joint", Kind: models.WalletShared, Currency: "USD",
		Balance: dec("500"), InitialBalance: dec("500"), CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		if err := tx.InsertUser(f.ctx, models.User{ID: dave, Email: "dave@example.com", DisplayName: "dave"}); err != nil {
			return err
		}
		if _, err := tx.SetPartner(f.ctx, f.carol, nil, &dave); err != nil {
			return err
		}
		if _, err := tx.SetPartner(f.ctx, dave, nil, &f.carol); err != nil {
			return err
		}
		return tx.InsertWallet(f.ctx, legacy)
	}))

	// neither couple can tell the wallet is theirs
	for _, actor := range []uuid.UUID{f.alice, f.bob, f.carol, dave} {
		views, err := f.svc.ListWallets(f.ctx, actor)
		require.NoError(t, err)
		assert.Empty(t, views)

		_, err = f.svc.RecordTransaction(f.ctx, actor, NewTransaction{
			SourceWalletID: legacy.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
		})
		require.ErrorIs(t, err, apperr.ErrForbidden)
	}
	assertAmount(t, "500", f.balance(t, legacy.ID))
	assert.Empty(t, f.transactions(t, true))
}

func TestRecordTransaction_ConcurrentSpendNeverOverdraws(t *testing.T) {
	f := newFixture(t, true, nil)
	shared := f.wallet(t, f.alice, models.WalletShared, "USD", "100")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		actor := f.alice
		if i%2 == 1 {
			actor = f.bob
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordTransaction(f.ctx, actor, NewTransaction{
				SourceWalletID: shared.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assertAmount(t, "0", f.balance(t, shared.ID))
	f.requireReconstructed(t)
}

func TestListWallets_AccessLevels(t *testing.T) {
	f := newFixture(t, true, nil)
	alicePersonal := f.wallet(t, f.alice, models.WalletPersonal, "USD", "1")
	bobPersonal := f.wallet(t, f.bob, models.WalletPersonal, "USD", "2")
	shared := f.wallet(t, f.bob, models.WalletShared, "USD", "3")
	f.wallet(t, f.carol, models.WalletPersonal, "USD", "4")

	views, err := f.svc.ListWallets(f.ctx, f.alice)
	require.NoError(t, err)
	got := make(map[uuid.UUID]visibility.Level)
	for _, v := range views {
		got[v.ID] = v.Access
	}
	assert.Equal(t, map[uuid.UUID]visibility.Level{
		alicePersonal.ID: visibility.Editable,
		bobPersonal.ID:   visibility.ViewOnly,
		shared.ID:        visibility.Editable,
	}, got)

	require.NoError(t, f.svc.DeleteWallet(f.ctx, f.alice, shared.ID))
	views, err = f.svc.ListWallets(f.ctx, f.bob)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	err = f.svc.DeleteWallet(f.ctx, f.alice, bobPersonal.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateWallet(t *testing.T) {
	f := newFixture(t, false, nil)
	w := f.wallet(t, f.alice, models.WalletPersonal, "USD", "10")

	name, color := "  Groceries ", "#00ff00"
	got, err := f.svc.UpdateWallet(f.ctx, f.alice, w.ID, WalletUpdate{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "#00ff00", got.Color)
	assertAmount(t, "10", got.Balance)

	empty := " "
	_, err = f.svc.UpdateWallet(f.ctx, f.alice, w.ID, WalletUpdate{Name: &empty})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.UpdateWallet(f.ctx, f.carol, w.ID, WalletUpdate{Name: &name})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateWallet_RejectsNegativeInitialBalance(t *testing.T) {
	f := newFixture(t, false, nil)
	_, err := f.svc.CreateWallet(f.ctx, f.alice, NewWallet{Name: "Cash", Kind: models.WalletPersonal, Currency: "USD", InitialBalance: dec("-1")})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateWallet(f.ctx, uuid.New(), NewWallet{Name: "Cash", Kind: models.WalletPersonal, Currency: "USD"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSoftDeleteAndRestore_CompensateBalance(t *testing.T) {
	f := newFixture(t, false, nil)
	w := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")

	income, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w.ID, Kind: models.KindIncome, Amount: dec("50"), Currency: "USD", Category: models.CategorySalary,
	})
	require.NoError(t, err)
	expense, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w.ID, Kind: models.KindExpense, Amount: dec("120"), Currency: "USD",
	})
	require.NoError(t, err)
	assertAmount(t, "30", f.balance(t, w.ID))

	// removing income that was already spent would overdraw the wallet
	err = f.svc.SoftDeleteTransaction(f.ctx, f.alice, income.ID)
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	assertAmount(t, "30", f.balance(t, w.ID))

	require.NoError(t, f.svc.SoftDeleteTransaction(f.ctx, f.alice, expense.ID))
	assertAmount(t, "150", f.balance(t, w.ID))
	f.requireReconstructed(t)

	err = f.svc.SoftDeleteTransaction(f.ctx, f.alice, expense.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	views, err := f.svc.ListTransactions(f.ctx, f.alice, TransactionQuery{})
	require.NoError(t, err)
	assert.Len(t, views, 1)
	views, err = f.svc.ListTransactions(f.ctx, f.alice, TransactionQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	require.NoError(t, f.svc.RestoreTransaction(f.ctx, f.alice, expense.ID))
	assertAmount(t, "30", f.balance(t, w.ID))
	f.requireReconstructed(t)

	err = f.svc.RestoreTransaction(f.ctx, f.alice, expense.ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Subset(t, f.auditActions(), []string{"transaction.delete", "transaction.restore"})
}

func TestHardDeleteTransaction(t *testing.T) {
	f := newFixture(t, true, nil)
	shared := f.wallet(t, f.alice, models.WalletShared, "USD", "0")
	income, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: shared.ID, Kind: models.KindIncome, Amount: dec("10"), Currency: "USD",
	})
	require.NoError(t, err)

	err = f.svc.HardDeleteTransaction(f.ctx, f.alice, income.ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "live rows must be soft-deleted first")

	require.NoError(t, f.svc.SoftDeleteTransaction(f.ctx, f.bob, income.ID))
	err = f.svc.HardDeleteTransaction(f.ctx, f.bob, income.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.svc.HardDeleteTransaction(f.ctx, f.alice, income.ID))
	assert.Empty(t, f.transactions(t, true))
	assertAmount(t, "0", f.balance(t, shared.ID))
	f.requireReconstructed(t)
	assert.Contains(t, f.auditActions(), "transaction.purge")
}

func TestHardDeleteTransaction_CreatorWhoLostAccess(t *testing.T) {
	f := newFixture(t, true, nil)
	shared := f.wallet(t, f.alice, models.WalletShared, "USD", "100")
	expense, err := f.svc.RecordTransaction(f.ctx, f.bob, NewTransaction{
		SourceWalletID: shared.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDeleteTransaction(f.ctx, f.bob, expense.ID))

	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		if _, err := tx.SetPartner(f.ctx, f.alice, &f.bob, nil); err != nil {
			return err
		}
		_, err := tx.SetPartner(f.ctx, f.bob, &f.alice, nil)
		return err
	}))

	// still the creator, but the wallet is no longer bob's to touch
	err = f.svc.HardDeleteTransaction(f.ctx, f.bob, expense.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Len(t, f.transactions(t, true), 1)
	assert.NotContains(t, f.auditActions(), "transaction.purge")
	assertAmount(t, "100", f.balance(t, shared.ID))
}

func TestUpdateTransactionDetails(t *testing.T) {
	f := newFixture(t, true, nil)
	w := f.wallet(t, f.alice, models.WalletPersonal, "USD", "100")
	tr, err := f.svc.RecordTransaction(f.ctx, f.alice, NewTransaction{
		SourceWalletID: w.ID, Kind: models.KindExpense, Amount: dec("10"), Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOtherExpense, tr.Category)

	cat, desc := models.CategoryTransport, " taxi "
	got, err := f.svc.UpdateTransactionDetails(f.ctx, f.alice, tr.ID, TransactionDetails{Category: &cat, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTransport, got.Category)
	assert.Equal(t, "taxi", got.Description)
	assertAmount(t, "10", got.Amount)

	bad := models.CategorySalary
	_, err = f.svc.UpdateTransactionDetails(f.ctx, f.alice, tr.ID, TransactionDetails{Category: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.UpdateTransactionDetails(f.ctx, f.bob, tr.ID, TransactionDetails{Description: &desc})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	views, err := f.svc.ListTransactions(f.ctx, f.bob, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, visibility.ViewOnly, views[0].Access)
}
