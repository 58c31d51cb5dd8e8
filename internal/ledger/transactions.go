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

// NewTransaction is the input of RecordTransaction
type NewTransaction struct {
	SourceWalletID      uuid.UUID
	DestinationWalletID *uuid.UUID // transfers only
	Kind                models.TransactionKind
	Amount              decimal.Decimal
	Currency            string
	Category            models.Category // empty picks the kind's default
	Description         string
	Notes               string
	OccurredAt          time.Time // zero means now
}

// TransactionDetails edits the non-financial fields of a transaction
type TransactionDetails struct {
	Category    *models.Category
	Description *string
	Notes       *string
}

// TransactionQuery filters ListTransactions
type TransactionQuery struct {
	WalletID       *uuid.UUID
	From, To       *time.Time
	IncludeDeleted bool
	Limit          int
}

// TransactionView is a transaction with the caller's access to it
type TransactionView struct {
	models.Transaction
	Access visibility.Level
}

func (in NewTransaction) validate() (NewTransaction, error) {
	if !in.Kind.Valid() {
		return in, apperr.Validation("unknown transaction kind %q", in.Kind)
	}
	if err := requirePositive(in.Amount, "amount"); err != nil {
		return in, err
	}
	cur, err := requireCurrency(in.Currency)
	if err != nil {
		return in, err
	}
	in.Currency = cur
	if err := requireScale(in.Amount, cur, "amount"); err != nil {
		return in, err
	}
	if in.Category == "" {
		in.Category = models.DefaultCategory(in.Kind)
	}
	if !in.Category.ValidFor(in.Kind) {
		return in, apperr.Validation("category %q is not valid for %s transactions", in.Category, in.Kind)
	}
	in.Description = strings.TrimSpace(in.Description)
	if len(in.Description) > maxDescriptionLen {
		return in, apperr.Validation("description is longer than %d characters", maxDescriptionLen)
	}
	switch {
	case in.Kind == models.KindTransfer && in.DestinationWalletID == nil:
		return in, apperr.New(apperr.ErrInvalidTransfer, "a transfer needs a destination wallet")
	case in.Kind == models.KindTransfer && *in.DestinationWalletID == in.SourceWalletID:
		return in, apperr.New(apperr.ErrInvalidTransfer, "source and destination wallets are the same")
	case in.Kind != models.KindTransfer && in.DestinationWalletID != nil:
		return in, apperr.Validation("only transfers have a destination wallet")
	}
	return in, nil
}

// RecordTransaction appends an income, expense or transfer and moves the balances it
// affects. A transfer updates both wallets or neither.
func (s *Service) RecordTransaction(ctx context.Context, actor uuid.UUID, in NewTransaction) (models.Transaction, error) {
	in, err := in.validate()
	if err != nil {
		return models.Transaction{}, err
	}
	now := s.clock()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	t := models.Transaction{
		ID:                  uuid.New(),
		SourceWalletID:      in.SourceWalletID,
		DestinationWalletID: in.DestinationWalletID,
		Kind:                in.Kind,
		Amount:              in.Amount,
		Currency:            in.Currency,
		Category:            in.Category,
		Description:         in.Description,
		Notes:               in.Notes,
		Source:              models.SourceManual,
		OccurredAt:          occurred.UTC(),
		CreatedBy:           actor,
		CreatedAt:           now,
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		return s.post(ctx, tx, v, t)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.audit.Record(ctx, "transaction.create", actor, map[string]any{
		"transaction_id": t.ID, "kind": t.Kind, "amount": t.Amount.String(), "currency": t.Currency,
	})
	return t, nil
}

// ListTransactions returns the transactions actor can see, newest first
func (s *Service) ListTransactions(ctx context.Context, actor uuid.UUID, q TransactionQuery) ([]TransactionView, error) {
	var out []TransactionView
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		wallets, levels, err := visibleWallets(ctx, tx, v)
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		if q.WalletID != nil {
			if !levels[*q.WalletID].CanView() {
				return apperr.Newf(apperr.ErrForbidden, "wallet %s is not visible to this user", *q.WalletID)
			}
			ids = []uuid.UUID{*q.WalletID}
		} else {
			for _, w := range wallets {
				if levels[w.ID].CanView() {
					ids = append(ids, w.ID)
				}
			}
		}
		if len(ids) == 0 {
			return nil
		}
		txs, err := tx.ListTransactions(ctx, store.TransactionFilter{
			WalletIDs: ids, From: q.From, To: q.To, IncludeDeleted: q.IncludeDeleted, Limit: q.Limit,
		})
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}
		for _, t := range txs {
			out = append(out, TransactionView{Transaction: t, Access: visibility.Transaction(levels, t)})
		}
		return nil
	})
	return out, err
}

// lockForEdit loads t with every wallet it references and checks that v may edit all of
// them. Deleted wallets make the transaction read-only.
func lockForEdit(ctx context.Context, tx store.Tx, v visibility.Viewer, id uuid.UUID) (models.Transaction, map[uuid.UUID]models.Wallet, error) {
	t, err := tx.LockTransaction(ctx, id)
	if err != nil {
		return t, nil, notFound(err, "transaction")
	}
	wallets, err := tx.LockWallets(ctx, t.WalletIDs()...)
	if err != nil {
		return t, nil, apperr.New(apperr.ErrForbidden, "transaction references a deleted wallet")
	}
	for _, w := range wallets {
		if err := editWallet(v, w); err != nil {
			return t, nil, err
		}
	}
	return t, wallets, nil
}

// UpdateTransactionDetails edits category, description or notes. Amount, kind and wallet
// references never change after creation.
func (s *Service) UpdateTransactionDetails(ctx context.Context, actor, id uuid.UUID, in TransactionDetails) (models.Transaction, error) {
	var out models.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		t, _, err := lockForEdit(ctx, tx, v, id)
		if err != nil {
			return err
		}
		if t.IsDeleted() {
			return apperr.New(apperr.ErrNotFound, "transaction is deleted")
		}
		if in.Category != nil {
			if !in.Category.ValidFor(t.Kind) {
				return apperr.Validation("category %q is not valid for %s transactions", *in.Category, t.Kind)
			}
			t.Category = *in.Category
		}
		if in.Description != nil {
			d := strings.TrimSpace(*in.Description)
			if len(d) > maxDescriptionLen {
				return apperr.Validation("description is longer than %d characters", maxDescriptionLen)
			}
			t.Description = d
		}
		if in.Notes != nil {
			t.Notes = *in.Notes
		}
		out = t
		return tx.UpdateTransactionDetails(ctx, t)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.audit.Record(ctx, "transaction.update", actor, map[string]any{"transaction_id": id})
	return out, nil
}

// SoftDeleteTransaction marks a transaction deleted and reverses its balance effect in
// the same unit of work. Reversing an income that was already spent is rejected with
// InsufficientFunds.
func (s *Service) SoftDeleteTransaction(ctx context.Context, actor, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		t, wallets, err := lockForEdit(ctx, tx, v, id)
		if err != nil {
			return err
		}
		if t.IsDeleted() {
			return apperr.New(apperr.ErrNotFound, "transaction is already deleted")
		}
		if t.Source != models.SourceManual {
			return apperr.Validation("%s transactions cannot be deleted directly", t.Source)
		}
		if err := shiftBalances(ctx, tx, wallets, t, -1); err != nil {
			return err
		}
		now := s.clock()
		return tx.SetTransactionDeleted(ctx, id, &now)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "transaction.delete", actor, map[string]any{"transaction_id": id})
	return nil
}

// RestoreTransaction clears the deleted marker and re-applies the balance effect
func (s *Service) RestoreTransaction(ctx context.Context, actor, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		t, wallets, err := lockForEdit(ctx, tx, v, id)
		if err != nil {
			return err
		}
		if !t.IsDeleted() {
			return apperr.Validation("transaction %s is not deleted", id)
		}
		if err := shiftBalances(ctx, tx, wallets, t, 1); err != nil {
			return err
		}
		return tx.SetTransactionDeleted(ctx, id, nil)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "transaction.restore", actor, map[string]any{"transaction_id": id})
	return nil
}

// HardDeleteTransaction permanently removes a soft-deleted transaction. Only its creator
// may do so, and only while they can still edit every wallet it touches. The removal is
// always audited.
func (s *Service) HardDeleteTransaction(ctx context.Context, actor, id uuid.UUID) error {
	var t models.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		if t, _, err = lockForEdit(ctx, tx, v, id); err != nil {
			return err
		}
		if t.CreatedBy != actor {
			return apperr.New(apperr.ErrForbidden, "only the creator may permanently delete a transaction")
		}
		if !t.IsDeleted() {
			return apperr.Validation("transaction %s must be soft-deleted first", id)
		}
		return tx.HardDeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "transaction.purge", actor, map[string]any{
		"transaction_id": id, "kind": t.Kind, "amount": t.Amount.String(), "currency": t.Currency,
		"source_wallet_id": t.SourceWalletID, "occurred_at": t.OccurredAt,
	})
	return nil
}
