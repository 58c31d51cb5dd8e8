package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/visibility"
	"github.com/shopspring/decimal"
)

// NewWallet is the input of CreateWallet
type NewWallet struct {
	Name           string
	Kind           models.WalletKind
	Currency       string
	InitialBalance decimal.Decimal
	Color          string
	Icon           string
}

// WalletUpdate changes display fields only. Nil fields are left untouched.
type WalletUpdate struct {
	Name  *string
	Color *string
	Icon  *string
}

// WalletView is a wallet together with the caller's access to it
type WalletView struct {
	models.Wallet
	Access visibility.Level
}

// CreateWallet creates a wallet owned by actor
func (s *Service) CreateWallet(ctx context.Context, actor uuid.UUID, in NewWallet) (models.Wallet, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return models.Wallet{}, err
	}
	if !in.Kind.Valid() {
		return models.Wallet{}, apperr.Validation("unknown wallet kind %q", in.Kind)
	}
	cur, err := requireCurrency(in.Currency)
	if err != nil {
		return models.Wallet{}, err
	}
	if in.InitialBalance.IsNegative() {
		return models.Wallet{}, apperr.Validation("initial balance cannot be negative")
	}
	if err := requireScale(in.InitialBalance, cur, "initial balance"); err != nil {
		return models.Wallet{}, err
	}

	owner := actor
	w := models.Wallet{
		ID:             uuid.New(),
		Name:           name,
		Kind:           in.Kind,
		Currency:       cur,
		Balance:        in.InitialBalance,
		InitialBalance: in.InitialBalance,
		OwnerID:        &owner,
		Color:          in.Color,
		Icon:           in.Icon,
		CreatedAt:      s.clock(),
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.User(ctx, actor); err != nil {
			return notFound(err, "user")
		}
		return tx.InsertWallet(ctx, w)
	})
	if err != nil {
		return models.Wallet{}, err
	}
	s.audit.Record(ctx, "wallet.create", actor, map[string]any{
		"wallet_id": w.ID, "kind": w.Kind, "currency": w.Currency, "initial_balance": w.InitialBalance.String(),
	})
	return w, nil
}

// UpdateWallet changes a wallet's display fields. Balance and currency are never edited.
func (s *Service) UpdateWallet(ctx context.Context, actor, walletID uuid.UUID, in WalletUpdate) (models.Wallet, error) {
	var out models.Wallet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		wallets, err := tx.LockWallets(ctx, walletID)
		if err != nil {
			return notFound(err, "wallet")
		}
		w := wallets[walletID]
		if err := editWallet(v, w); err != nil {
			return err
		}
		if in.Name != nil {
			if w.Name, err = requireName(*in.Name); err != nil {
				return err
			}
		}
		if in.Color != nil {
			w.Color = *in.Color
		}
		if in.Icon != nil {
			w.Icon = *in.Icon
		}
		out = w
		return tx.UpdateWalletDetails(ctx, w)
	})
	if err != nil {
		return models.Wallet{}, err
	}
	s.audit.Record(ctx, "wallet.update", actor, map[string]any{"wallet_id": walletID})
	return out, nil
}

// DeleteWallet soft-deletes a wallet. Its transactions stay in the log.
func (s *Service) DeleteWallet(ctx context.Context, actor, walletID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		wallets, err := tx.LockWallets(ctx, walletID)
		if err != nil {
			return notFound(err, "wallet")
		}
		if err := editWallet(v, wallets[walletID]); err != nil {
			return err
		}
		return tx.SoftDeleteWallet(ctx, walletID, s.clock())
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "wallet.delete", actor, map[string]any{"wallet_id": walletID})
	return nil
}

// ListWallets returns every wallet actor can see, with its access level
func (s *Service) ListWallets(ctx context.Context, actor uuid.UUID) ([]WalletView, error) {
	var out []WalletView
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		wallets, err := tx.WalletsFor(ctx, household(v)...)
		if err != nil {
			return fmt.Errorf("listing wallets: %w", err)
		}
		for _, w := range wallets {
			if level := v.Wallet(w); level.CanView() {
				out = append(out, WalletView{Wallet: w, Access: level})
			}
		}
		return nil
	})
	return out, err
}

// visibleWallets resolves the household wallets for v
func visibleWallets(ctx context.Context, tx store.Tx, v visibility.Viewer) ([]models.Wallet, map[uuid.UUID]visibility.Level, error) {
	wallets, err := tx.WalletsFor(ctx, household(v)...)
	if err != nil {
		return nil, nil, fmt.Errorf("listing wallets: %w", err)
	}
	return wallets, v.Wallets(wallets), nil
}
