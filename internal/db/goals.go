package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, owner_id, name, target_amount, current_amount, currency, target_date, icon, color, created_at, deleted_at`

func scanGoal(row pgx.Row) (models.Goal, error) {
	var g models.Goal
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Currency,
		&g.TargetDate, &g.Icon, &g.Color, &g.CreatedAt, &g.DeletedAt)
	return g, mapErr(err)
}

func (t *pgTx) InsertGoal(ctx context.Context, g models.Goal) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount, g.CurrentAmount, g.Currency, g.TargetDate, g.Icon, g.Color, g.CreatedAt, g.DeletedAt)
	return mapErr(err)
}

func (t *pgTx) LockGoal(ctx context.Context, id uuid.UUID) (models.Goal, error) {
	return scanGoal(t.tx.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id))
}

func (t *pgTx) GoalsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Goal, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE deleted_at IS NULL AND owner_id = ANY($1::uuid[]) ORDER BY created_at`,
		idStrings(owners))
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Goal, error) {
		return scanGoal(row)
	})
	return out, mapErr(err)
}

func (t *pgTx) UpdateGoalDetails(ctx context.Context, g models.Goal) error {
	return t.exec(ctx,
		`UPDATE goals SET name = $2, target_amount = $3, target_date = $4, icon = $5, color = $6
		 WHERE id = $1 AND deleted_at IS NULL`,
		g.ID, g.Name, g.TargetAmount, g.TargetDate, g.Icon, g.Color)
}

func (t *pgTx) SetGoalAmount(ctx context.Context, id uuid.UUID, current decimal.Decimal) error {
	return t.exec(ctx, `UPDATE goals SET current_amount = $2 WHERE id = $1 AND deleted_at IS NULL`, id, current)
}

func (t *pgTx) SoftDeleteGoal(ctx context.Context, id uuid.UUID, at time.Time) error {
	return t.exec(ctx, `UPDATE goals SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
}

func (t *pgTx) InsertGoalContribution(ctx context.Context, c models.GoalContribution) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO goal_contributions (id, goal_id, amount, wallet_id, transaction_id, type, contributed_by, contributed_at, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.GoalID, c.Amount, c.WalletID, c.TransactionID, c.Type, c.ContributedBy, c.ContributedAt, c.Note)
	return mapErr(err)
}

func (t *pgTx) GoalContributions(ctx context.Context, goalID uuid.UUID) ([]models.GoalContribution, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, goal_id, amount, wallet_id, transaction_id, type, contributed_by, contributed_at, note
		 FROM goal_contributions WHERE goal_id = $1 ORDER BY contributed_at`, goalID)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GoalContribution, error) {
		var c models.GoalContribution
		err := row.Scan(&c.ID, &c.GoalID, &c.Amount, &c.WalletID, &c.TransactionID, &c.Type,
			&c.ContributedBy, &c.ContributedAt, &c.Note)
		return c, err
	})
	return out, mapErr(err)
}
