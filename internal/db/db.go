// Package db is the PostgreSQL implementation of store.Store.
//
// Every unit of work runs in one database transaction. Lock* methods use SELECT ... FOR
// UPDATE ordered by id, so two writers touching the same rows always queue in the same
// order and cannot deadlock on each other.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatsaysai/partner-ledger/internal/config"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure
const uniqueViolation = "23505"

// Initialize creates the PostgreSQL connection pool
func Initialize(ctx context.Context, cfg config.PostgreSQLConfig) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
		cfg.Schema,
	)

	connectConf, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse PostgreSQL config: %w", err)
	}

	connectConf.MaxConns = int32(cfg.PoolMaxConns)
	connectConf.HealthCheckPeriod = 15 * time.Second
	connectConf.ConnConfig.ConnectTimeout = 5 * time.Second

	// Set timezone to PGX runtime
	if s := os.Getenv("TZ"); s != "" {
		connectConf.ConnConfig.RuntimeParams["timezone"] = s
	}

	pool, err := pgxpool.NewWithConfig(ctx, connectConf)
	if err != nil {
		return nil, fmt.Errorf("unable to create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach PostgreSQL: %w", err)
	}

	log.Println("Connected to PostgreSQL successfully")
	return pool, nil
}

// Store implements store.Store on a pgx pool
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx implements store.Store
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if commit isn't called

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AppendAudit implements store.Store
func (s *Store) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, actor_id, metadata, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Action, e.ActorID, e.Metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// PruneAudit implements store.Store
func (s *Store) PruneAudit(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// pgTx is one unit of work
type pgTx struct {
	tx pgx.Tx
}

// mapErr translates driver errors into the store sentinels
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}

// exec runs a single-row write and reports store.ErrNotFound when nothing matched
func (t *pgTx) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// idStrings prepares ids for a uuid[] parameter. Lock order comes from ORDER BY id in the
// queries, not from the order of ids.
func idStrings(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id.String())
	}
	return out
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*pgTx)(nil)
