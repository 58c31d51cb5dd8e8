package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const debtColumns = `id, owner_id, kind, name, total_amount, remaining_amount, currency, interest_rate,
	due_date, external_name, created_at, deleted_at`

func scanDebt(row pgx.Row) (models.Debt, error) {
	var (
		d    models.Debt
		rate decimal.NullDecimal
	)
	err := row.Scan(&d.ID, &d.OwnerID, &d.Kind, &d.Name, &d.TotalAmount, &d.RemainingAmount, &d.Currency,
		&rate, &d.DueDate, &d.ExternalName, &d.CreatedAt, &d.DeletedAt)
	if rate.Valid {
		d.InterestRate = &rate.Decimal
	}
	return d, mapErr(err)
}

func (t *pgTx) InsertDebt(ctx context.Context, d models.Debt) error {
	var rate decimal.NullDecimal
	if d.InterestRate != nil {
		rate = decimal.NewNullDecimal(*d.InterestRate)
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO debts (`+debtColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.OwnerID, d.Kind, d.Name, d.TotalAmount, d.RemainingAmount, d.Currency, rate,
		d.DueDate, d.ExternalName, d.CreatedAt, d.DeletedAt)
	return mapErr(err)
}

func (t *pgTx) LockDebt(ctx context.Context, id uuid.UUID) (models.Debt, error) {
	return scanDebt(t.tx.QueryRow(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
}

func (t *pgTx) DebtsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Debt, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE deleted_at IS NULL AND owner_id = ANY($1::uuid[]) ORDER BY created_at`,
		idStrings(owners))
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Debt, error) {
		return scanDebt(row)
	})
	return out, mapErr(err)
}

func (t *pgTx) SetDebtRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error {
	return t.exec(ctx, `UPDATE debts SET remaining_amount = $2 WHERE id = $1 AND deleted_at IS NULL`, id, remaining)
}

func (t *pgTx) SoftDeleteDebt(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := t.exec(ctx, `UPDATE debts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE debt_payments SET deleted_at = $2 WHERE debt_id = $1 AND deleted_at IS NULL`, id, at)
	return mapErr(err)
}

func (t *pgTx) InsertDebtPayment(ctx context.Context, p models.DebtPayment) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO debt_payments (id, debt_id, amount, wallet_id, transaction_id, paid_at, paid_by, deleted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.DebtID, p.Amount, p.WalletID, p.TransactionID, p.PaidAt, p.PaidBy, p.DeletedAt)
	return mapErr(err)
}

func (t *pgTx) DebtPayments(ctx context.Context, debtID uuid.UUID) ([]models.DebtPayment, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, debt_id, amount, wallet_id, transaction_id, paid_at, paid_by, deleted_at
		 FROM debt_payments WHERE debt_id = $1 AND deleted_at IS NULL ORDER BY paid_at`, debtID)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DebtPayment, error) {
		var p models.DebtPayment
		err := row.Scan(&p.ID, &p.DebtID, &p.Amount, &p.WalletID, &p.TransactionID, &p.PaidAt, &p.PaidBy, &p.DeletedAt)
		return p, err
	})
	return out, mapErr(err)
}
