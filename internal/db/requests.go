package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
)

const requestColumns = `id, from_user_id, to_user_id, status, created_at, responded_at`

func scanRequest(row pgx.Row) (models.PartnerRequest, error) {
	var r models.PartnerRequest
	err := row.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Status, &r.CreatedAt, &r.RespondedAt)
	return r, mapErr(err)
}

// InsertPartnerRequest relies on the partial unique indexes from Migrate; a second pending
// request from the same sender or between the same pair fails with ErrUniqueViolation.
func (t *pgTx) InsertPartnerRequest(ctx context.Context, r models.PartnerRequest) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO partner_requests (`+requestColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.FromUserID, r.ToUserID, r.Status, r.CreatedAt, r.RespondedAt)
	return mapErr(err)
}

func (t *pgTx) LockPartnerRequest(ctx context.Context, id uuid.UUID) (models.PartnerRequest, error) {
	return scanRequest(t.tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM partner_requests WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PartnerRequest, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+requestColumns+` FROM partner_requests
		 WHERE status = 'pending' AND (from_user_id = $1 OR to_user_id = $1)
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PartnerRequest, error) {
		return scanRequest(row)
	})
	return out, mapErr(err)
}

func (t *pgTx) SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) error {
	return t.exec(ctx, `UPDATE partner_requests SET status = $2, responded_at = $3 WHERE id = $1`, id, status, at)
}
