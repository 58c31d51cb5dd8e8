package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
)

const userColumns = `id, COALESCE(email, ''), display_name, COALESCE(discord_id, ''), partner_id, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.DiscordID, &u.PartnerID, &u.CreatedAt)
	return u, mapErr(err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (t *pgTx) InsertUser(ctx context.Context, u models.User) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO users (id, email, display_name, discord_id, partner_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, nullIfEmpty(u.Email), u.DisplayName, nullIfEmpty(u.DiscordID), u.PartnerID, u.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (t *pgTx) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (t *pgTx) UserByDiscordID(ctx context.Context, discordID string) (models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE discord_id = $1`, discordID))
}

func (t *pgTx) UpdateUserProfile(ctx context.Context, id uuid.UUID, email, displayName string) error {
	return t.exec(ctx, `UPDATE users SET email = $2, display_name = $3 WHERE id = $1`, id, nullIfEmpty(email), displayName)
}

func (t *pgTx) LockUsers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.User, error) {
	want := idStrings(ids)
	rows, err := t.tx.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, want)
	if err != nil {
		return nil, mapErr(err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	if len(users) != len(want) {
		return nil, store.ErrNotFound
	}
	out := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (t *pgTx) SetPartner(ctx context.Context, id uuid.UUID, expect, partnerID *uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE users SET partner_id = $3 WHERE id = $1 AND partner_id IS NOT DISTINCT FROM $2`,
		id, expect, partnerID)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}
