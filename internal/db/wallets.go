package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, name, kind, currency, balance, initial_balance, owner_id, color, icon, created_at, deleted_at`

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.Name, &w.Kind, &w.Currency, &w.Balance, &w.InitialBalance,
		&w.OwnerID, &w.Color, &w.Icon, &w.CreatedAt, &w.DeletedAt)
	return w, mapErr(err)
}

func collectWallets(rows pgx.Rows, err error) ([]models.Wallet, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Wallet, error) {
		return scanWallet(row)
	})
	return out, mapErr(err)
}

func (t *pgTx) InsertWallet(ctx context.Context, w models.Wallet) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO wallets (`+walletColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.ID, w.Name, w.Kind, w.Currency, w.Balance, w.InitialBalance, w.OwnerID, w.Color, w.Icon, w.CreatedAt, w.DeletedAt)
	return mapErr(err)
}

func (t *pgTx) Wallet(ctx context.Context, id uuid.UUID) (models.Wallet, error) {
	return scanWallet(t.tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (t *pgTx) LockWallets(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.Wallet, error) {
	want := idStrings(ids)
	wallets, err := collectWallets(t.tx.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL ORDER BY id FOR UPDATE`, want))
	if err != nil {
		return nil, err
	}
	if len(wallets) != len(want) {
		return nil, store.ErrNotFound
	}
	out := make(map[uuid.UUID]models.Wallet, len(wallets))
	for _, w := range wallets {
		out[w.ID] = w
	}
	return out, nil
}

func (t *pgTx) WalletsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Wallet, error) {
	return collectWallets(t.tx.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets
		 WHERE deleted_at IS NULL AND owner_id = ANY($1::uuid[])
		 ORDER BY created_at, name`, idStrings(owners)))
}

func (t *pgTx) AllWallets(ctx context.Context) ([]models.Wallet, error) {
	return collectWallets(t.tx.Query(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY created_at, name`))
}

func (t *pgTx) UpdateWalletDetails(ctx context.Context, w models.Wallet) error {
	return t.exec(ctx,
		`UPDATE wallets SET name = $2, color = $3, icon = $4 WHERE id = $1 AND deleted_at IS NULL`,
		w.ID, w.Name, w.Color, w.Icon)
}

func (t *pgTx) SetWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return t.exec(ctx, `UPDATE wallets SET balance = $2 WHERE id = $1`, id, balance)
}

func (t *pgTx) SoftDeleteWallet(ctx context.Context, id uuid.UUID, at time.Time) error {
	return t.exec(ctx, `UPDATE wallets SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
}
