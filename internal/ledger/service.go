// Package ledger is the single authority for wallet balances, debt remainders and goal
// progress. Every mutation pairs the balance change with an append-only record inside
// one unit of work, after re-checking the acting user's access on the locked rows.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/visibility"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
	"github.com/oatsaysai/partner-ledger/pkg/rates"
	"github.com/shopspring/decimal"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// Service applies ledger operations
type Service struct {
	store store.Store
	audit *audit.Recorder
	rates rates.Provider
	now   func() time.Time
}

// NewService creates a ledger service. rp may be nil, in which case aggregates are never
// converted across currencies.
func NewService(st store.Store, rec *audit.Recorder, rp rates.Provider) *Service {
	return &Service{store: st, audit: rec, rates: rp, now: time.Now}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// viewer reads the acting user and its partner link. When lock is set the user row stays
// locked until the unit of work ends so that an unpair cannot interleave with a write
// that relied on the link.
func viewer(ctx context.Context, tx store.Tx, actor uuid.UUID, lock bool) (visibility.Viewer, error) {
	if lock {
		users, err := tx.LockUsers(ctx, actor)
		if err != nil {
			return visibility.Viewer{}, notFound(err, "user")
		}
		return visibility.ViewerOf(users[actor]), nil
	}
	u, err := tx.User(ctx, actor)
	if err != nil {
		return visibility.Viewer{}, notFound(err, "user")
	}
	return visibility.ViewerOf(u), nil
}

// household returns the viewer and, when paired, the partner
func household(v visibility.Viewer) []uuid.UUID {
	ids := []uuid.UUID{v.UserID}
	if v.PartnerID != nil {
		ids = append(ids, *v.PartnerID)
	}
	return ids
}

func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Newf(apperr.ErrNotFound, "%s not found", what)
	}
	return fmt.Errorf("loading %s: %w", what, err)
}

func requirePositive(amount decimal.Decimal, field string) error {
	if !amount.IsPositive() {
		return apperr.Validation("%s must be positive, got %s", field, amount)
	}
	return nil
}

// requireScale rejects amounts finer than the currency's minor unit
func requireScale(amount decimal.Decimal, cur, field string) error {
	digits := currency.Fraction(cur)
	if !amount.Equal(amount.Round(digits)) {
		return apperr.Validation("%s %s has more decimal places than %s allows (%d)", field, amount, cur, digits)
	}
	return nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	if len(name) > maxNameLen {
		return "", apperr.Validation("name is longer than %d characters", maxNameLen)
	}
	return name, nil
}

func requireCurrency(code string) (string, error) {
	code = currency.Normalize(code)
	if err := currency.Validate(code); err != nil {
		return "", apperr.Validation("%v", err)
	}
	return code, nil
}

// editWallet checks that v may mutate w
func editWallet(v visibility.Viewer, w models.Wallet) error {
	if !v.Wallet(w).CanEdit() {
		return apperr.Newf(apperr.ErrForbidden, "wallet %s is not editable by this user", w.ID)
	}
	return nil
}

// post applies the balance effect of t to the wallets it references and appends it.
// It is the only code path that writes a new transaction.
func (s *Service) post(ctx context.Context, tx store.Tx, v visibility.Viewer, t models.Transaction) error {
	wallets, err := tx.LockWallets(ctx, t.WalletIDs()...)
	if errors.Is(err, store.ErrNotFound) {
		if _, serr := tx.Wallet(ctx, t.SourceWalletID); serr != nil {
			return notFound(serr, "source wallet")
		}
		return apperr.New(apperr.ErrInvalidTransfer, "destination wallet not found")
	}
	if err != nil {
		return fmt.Errorf("locking wallets: %w", err)
	}

	src := wallets[t.SourceWalletID]
	if err := editWallet(v, src); err != nil {
		return err
	}
	if t.Currency != src.Currency {
		return apperr.Validation("transaction currency %s does not match wallet currency %s", t.Currency, src.Currency)
	}
	if t.Kind == models.KindTransfer {
		dst := wallets[*t.DestinationWalletID]
		if !v.Wallet(dst).CanEdit() {
			return apperr.New(apperr.ErrInvalidTransfer, "destination wallet is not editable by this user")
		}
		if dst.Currency != src.Currency {
			return apperr.Newf(apperr.ErrInvalidTransfer, "cannot transfer %s into a %s wallet", src.Currency, dst.Currency)
		}
	}

	if err := shiftBalances(ctx, tx, wallets, t, 1); err != nil {
		return err
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// shiftBalances adds sign times the effect of t to every wallet it references. A wallet
// that would be debited below zero rejects the whole shift.
func shiftBalances(ctx context.Context, tx store.Tx, wallets map[uuid.UUID]models.Wallet, t models.Transaction, sign int64) error {
	next := make(map[uuid.UUID]decimal.Decimal, len(wallets))
	for _, id := range t.WalletIDs() {
		w := wallets[id]
		delta := t.EffectOn(id).Mul(decimal.NewFromInt(sign))
		balance := w.Balance.Add(delta)
		if delta.IsNegative() && balance.IsNegative() {
			return apperr.Newf(apperr.ErrInsufficientFunds, "wallet %q holds %s, needs %s",
				w.Name, currency.Format(w.Balance, w.Currency), currency.Format(delta.Neg(), w.Currency))
		}
		next[id] = balance
	}
	for id, balance := range next {
		if err := tx.SetWalletBalance(ctx, id, balance); err != nil {
			return fmt.Errorf("updating wallet %s balance: %w", id, err)
		}
	}
	return nil
}
