package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/visibility"
	"github.com/shopspring/decimal"
)

// NewDebt is the input of CreateDebt
type NewDebt struct {
	Kind         models.DebtKind
	Name         string
	TotalAmount  decimal.Decimal
	Currency     string
	InterestRate *decimal.Decimal
	DueDate      *time.Time
	ExternalName string
}

// DebtPaymentInput is the input of PayDebt. WalletID may be left nil to use the first
// editable wallet in the debt's currency.
type DebtPaymentInput struct {
	DebtID   uuid.UUID
	Amount   decimal.Decimal
	WalletID *uuid.UUID
}

// CreateDebt records a debt owned by actor. Remaining starts at the total.
func (s *Service) CreateDebt(ctx context.Context, actor uuid.UUID, in NewDebt) (models.Debt, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return models.Debt{}, err
	}
	if !in.Kind.Valid() {
		return models.Debt{}, apperr.Validation("unknown debt kind %q", in.Kind)
	}
	if err := requirePositive(in.TotalAmount, "total amount"); err != nil {
		return models.Debt{}, err
	}
	cur, err := requireCurrency(in.Currency)
	if err != nil {
		return models.Debt{}, err
	}
	if err := requireScale(in.TotalAmount, cur, "total amount"); err != nil {
		return models.Debt{}, err
	}
	if in.InterestRate != nil && in.InterestRate.IsNegative() {
		return models.Debt{}, apperr.Validation("interest rate cannot be negative")
	}

	d := models.Debt{
		ID:              uuid.New(),
		OwnerID:         actor,
		Kind:            in.Kind,
		Name:            name,
		TotalAmount:     in.TotalAmount,
		RemainingAmount: in.TotalAmount,
		Currency:        cur,
		InterestRate:    in.InterestRate,
		DueDate:         in.DueDate,
		ExternalName:    strings.TrimSpace(in.ExternalName),
		CreatedAt:       s.clock(),
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		if d.Kind == models.DebtInternal && v.PartnerID == nil {
			return apperr.New(apperr.ErrNotPaired, "internal debts need a partner")
		}
		return tx.InsertDebt(ctx, d)
	})
	if err != nil {
		return models.Debt{}, err
	}
	s.audit.Record(ctx, "debt.create", actor, map[string]any{
		"debt_id": d.ID, "kind": d.Kind, "total": d.TotalAmount.String(), "currency": d.Currency,
	})
	return d, nil
}

// ListDebts returns the household's live debts
func (s *Service) ListDebts(ctx context.Context, actor uuid.UUID) ([]models.Debt, error) {
	var out []models.Debt
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		out, err = tx.DebtsFor(ctx, household(v)...)
		return err
	})
	return out, err
}

func lockDebt(ctx context.Context, tx store.Tx, v visibility.Viewer, id uuid.UUID) (models.Debt, error) {
	d, err := tx.LockDebt(ctx, id)
	if err != nil {
		return d, notFound(err, "debt")
	}
	if !v.Member(d.OwnerID) {
		return d, apperr.Newf(apperr.ErrForbidden, "debt %s belongs to another household", id)
	}
	return d, nil
}

// pickWallet returns the wallet a synthesized transaction posts against: the requested one
// when given, otherwise the actor's own personal wallet in cur, then any editable one.
func pickWallet(ctx context.Context, tx store.Tx, v visibility.Viewer, requested *uuid.UUID, cur string) (models.Wallet, error) {
	if requested != nil {
		wallets, err := tx.LockWallets(ctx, *requested)
		if err != nil {
			return models.Wallet{}, notFound(err, "wallet")
		}
		w := wallets[*requested]
		if err := editWallet(v, w); err != nil {
			return w, err
		}
		if w.Currency != cur {
			return w, apperr.Validation("wallet currency %s does not match %s", w.Currency, cur)
		}
		return w, nil
	}

	wallets, levels, err := visibleWallets(ctx, tx, v)
	if err != nil {
		return models.Wallet{}, err
	}
	var fallback *models.Wallet
	for i, w := range wallets {
		if w.Currency != cur || !levels[w.ID].CanEdit() {
			continue
		}
		if w.Kind == models.WalletPersonal && w.OwnerID != nil && *w.OwnerID == v.UserID {
			return w, nil
		}
		if fallback == nil {
			fallback = &wallets[i]
		}
	}
	if fallback == nil {
		return models.Wallet{}, apperr.Validation("no editable wallet in %s", cur)
	}
	return *fallback, nil
}

// PayDebt pays amount off a debt and posts the matching expense (we owe) or income (owed
// to us) against a wallet in the debt's currency, all in one unit of work.
func (s *Service) PayDebt(ctx context.Context, actor uuid.UUID, in DebtPaymentInput) (models.DebtPayment, models.Transaction, error) {
	if err := requirePositive(in.Amount, "amount"); err != nil {
		return models.DebtPayment{}, models.Transaction{}, err
	}
	var (
		payment models.DebtPayment
		posted  models.Transaction
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		d, err := lockDebt(ctx, tx, v, in.DebtID)
		if err != nil {
			return err
		}
		var kind models.TransactionKind
		switch d.Kind {
		case models.DebtWeOwe:
			kind = models.KindExpense
		case models.DebtOwedToUs:
			kind = models.KindIncome
		default:
			return apperr.Validation("internal debts are settled between partners and cannot be paid")
		}
		if err := requireScale(in.Amount, d.Currency, "amount"); err != nil {
			return err
		}
		if in.Amount.GreaterThan(d.RemainingAmount) {
			return apperr.Newf(apperr.ErrOverPayment, "payment %s exceeds remaining %s", in.Amount, d.RemainingAmount)
		}
		w, err := pickWallet(ctx, tx, v, in.WalletID, d.Currency)
		if err != nil {
			return err
		}

		now := s.clock()
		posted = models.Transaction{
			ID:             uuid.New(),
			SourceWalletID: w.ID,
			Kind:           kind,
			Amount:         in.Amount,
			Currency:       d.Currency,
			Category:       models.CategoryDebtPayment,
			Description:    fmt.Sprintf("Debt payment: %s", d.Name),
			Source:         models.SourceDebtPayment,
			OccurredAt:     now,
			CreatedBy:      actor,
			CreatedAt:      now,
		}
		if err := s.post(ctx, tx, v, posted); err != nil {
			return err
		}

		remaining := d.RemainingAmount.Sub(in.Amount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if err := tx.SetDebtRemaining(ctx, d.ID, remaining); err != nil {
			return fmt.Errorf("updating debt remaining: %w", err)
		}
		payment = models.DebtPayment{
			ID:            uuid.New(),
			DebtID:        d.ID,
			Amount:        in.Amount,
			WalletID:      w.ID,
			TransactionID: posted.ID,
			PaidAt:        now,
			PaidBy:        actor,
		}
		return tx.InsertDebtPayment(ctx, payment)
	})
	if err != nil {
		return models.DebtPayment{}, models.Transaction{}, err
	}
	s.audit.Record(ctx, "debt.pay", actor, map[string]any{
		"debt_id": in.DebtID, "payment_id": payment.ID, "transaction_id": posted.ID, "amount": in.Amount.String(),
	})
	return payment, posted, nil
}

// DebtPayments returns the live payments of a debt
func (s *Service) DebtPayments(ctx context.Context, actor, debtID uuid.UUID) ([]models.DebtPayment, error) {
	var out []models.DebtPayment
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		if _, err := lockDebt(ctx, tx, v, debtID); err != nil {
			return err
		}
		out, err = tx.DebtPayments(ctx, debtID)
		return err
	})
	return out, err
}

// DeleteDebt soft-deletes a debt and its payments. It does not reverse anything: the
// expense or income transactions the payments posted stay live, so wallet balances keep
// the money already paid. Those transactions cannot be soft-deleted on their own either,
// which keeps the log and the payments it came from in agreement.
func (s *Service) DeleteDebt(ctx context.Context, actor, debtID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		if _, err := lockDebt(ctx, tx, v, debtID); err != nil {
			return err
		}
		return tx.SoftDeleteDebt(ctx, debtID, s.clock())
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "debt.delete", actor, map[string]any{"debt_id": debtID})
	return nil
}

// InternalBalance returns, per currency, what the partner owes actor on internal debts.
// Negative values mean actor owes the partner.
func (s *Service) InternalBalance(ctx context.Context, actor uuid.UUID) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		debts, err := tx.DebtsFor(ctx, household(v)...)
		if err != nil {
			return err
		}
		for _, d := range debts {
			if d.Kind != models.DebtInternal {
				continue
			}
			amount := d.RemainingAmount
			if d.OwnerID != actor {
				amount = amount.Neg()
			}
			out[d.Currency] = out[d.Currency].Add(amount)
		}
		return nil
	})
	return out, err
}
