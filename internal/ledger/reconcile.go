package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// Discrepancy is a wallet whose cached balance disagrees with its transaction log
type Discrepancy struct {
	WalletID uuid.UUID
	Name     string
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

// Reconcile recomputes every live wallet balance from its initial balance and the
// non-deleted transactions touching it. Each wallet is checked in its own unit of work
// with its row locked before the balance and the log are read, so a ledger write can
// neither slip in between the two reads nor be overwritten by a fix. With fix set,
// mismatched balances are rewritten.
func (s *Service) Reconcile(ctx context.Context, fix bool) ([]Discrepancy, error) {
	var ids []uuid.UUID
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		wallets, err := tx.AllWallets(ctx)
		if err != nil {
			return fmt.Errorf("listing wallets: %w", err)
		}
		for _, w := range wallets {
			if w.DeletedAt == nil {
				ids = append(ids, w.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, id := range ids {
		d, found, err := s.reconcileWallet(ctx, id, fix)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, d)
		}
	}
	if fix && len(out) > 0 {
		s.audit.Record(ctx, "wallet.reconcile", uuid.Nil, map[string]any{"fixed": len(out)})
	}
	return out, nil
}

func (s *Service) reconcileWallet(ctx context.Context, id uuid.UUID, fix bool) (Discrepancy, bool, error) {
	var (
		d     Discrepancy
		found bool
	)
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		locked, err := tx.LockWallets(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			// deleted since it was listed
			return nil
		}
		if err != nil {
			return fmt.Errorf("locking wallet %s: %w", id, err)
		}
		w := locked[id]
		txs, err := tx.ListTransactions(ctx, store.TransactionFilter{WalletIDs: []uuid.UUID{id}})
		if err != nil {
			return fmt.Errorf("listing transactions of wallet %s: %w", id, err)
		}
		computed := w.InitialBalance
		for _, t := range txs {
			computed = computed.Add(t.EffectOn(id))
		}
		if computed.Equal(w.Balance) {
			return nil
		}
		log.Printf("Wallet %s (%s) balance %s does not match ledger %s", id, w.Name, w.Balance, computed)
		d, found = Discrepancy{WalletID: id, Name: w.Name, Stored: w.Balance, Computed: computed}, true
		if !fix {
			return nil
		}
		if err := tx.SetWalletBalance(ctx, id, computed); err != nil {
			return fmt.Errorf("fixing wallet %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return Discrepancy{}, false, err
	}
	return d, found, nil
}
