package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
)

const transactionColumns = `id, source_wallet_id, destination_wallet_id, kind, amount, currency, category,
	description, notes, source, occurred_at, created_by, created_at, deleted_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var tr models.Transaction
	err := row.Scan(&tr.ID, &tr.SourceWalletID, &tr.DestinationWalletID, &tr.Kind, &tr.Amount, &tr.Currency,
		&tr.Category, &tr.Description, &tr.Notes, &tr.Source, &tr.OccurredAt, &tr.CreatedBy, &tr.CreatedAt, &tr.DeletedAt)
	return tr, mapErr(err)
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr models.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		tr.ID, tr.SourceWalletID, tr.DestinationWalletID, tr.Kind, tr.Amount, tr.Currency, tr.Category,
		tr.Description, tr.Notes, tr.Source, tr.OccurredAt, tr.CreatedBy, tr.CreatedAt, tr.DeletedAt)
	return mapErr(err)
}

func (t *pgTx) LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return scanTransaction(t.tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if len(f.WalletIDs) > 0 {
		p := arg(idStrings(f.WalletIDs))
		where = append(where, fmt.Sprintf("(source_wallet_id = ANY(%s::uuid[]) OR destination_wallet_id = ANY(%s::uuid[]))", p, p))
	}
	if f.From != nil {
		where = append(where, "occurred_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "occurred_at <= "+arg(*f.To))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY occurred_at DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
	return out, mapErr(err)
}

func (t *pgTx) UpdateTransactionDetails(ctx context.Context, tr models.Transaction) error {
	return t.exec(ctx,
		`UPDATE transactions SET category = $2, description = $3, notes = $4 WHERE id = $1`,
		tr.ID, tr.Category, tr.Description, tr.Notes)
}

func (t *pgTx) SetTransactionDeleted(ctx context.Context, id uuid.UUID, at *time.Time) error {
	return t.exec(ctx, `UPDATE transactions SET deleted_at = $2 WHERE id = $1`, id, at)
}

func (t *pgTx) HardDeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return t.exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
}
