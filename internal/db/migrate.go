package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied in order; every statement is idempotent
var schema = []struct {
	name string
	sql  string
}{
	{"users", `
    CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        email VARCHAR(254),
        display_name VARCHAR(100) NOT NULL DEFAULT '',
        discord_id VARCHAR(50),
        partner_id UUID REFERENCES users(id) ON DELETE SET NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        CONSTRAINT users_not_own_partner CHECK (partner_id IS NULL OR partner_id <> id)
    );
    CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email)) WHERE email IS NOT NULL AND email <> '';
    CREATE UNIQUE INDEX IF NOT EXISTS idx_users_discord_id ON users(discord_id) WHERE discord_id IS NOT NULL AND discord_id <> '';`},

	{"wallets", `
    CREATE TABLE IF NOT EXISTS wallets (
        id UUID PRIMARY KEY,
        name VARCHAR(100) NOT NULL,
        kind VARCHAR(10) NOT NULL CHECK (kind IN ('personal', 'shared')),
        currency CHAR(3) NOT NULL,
        balance NUMERIC(19, 4) NOT NULL,
        initial_balance NUMERIC(19, 4) NOT NULL DEFAULT 0,
        owner_id UUID REFERENCES users(id) ON DELETE CASCADE,
        color VARCHAR(20) NOT NULL DEFAULT '',
        icon VARCHAR(50) NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        deleted_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_wallets_owner_id ON wallets(owner_id) WHERE deleted_at IS NULL;`},

	{"transactions", `
    CREATE TABLE IF NOT EXISTS transactions (
        id UUID PRIMARY KEY,
        source_wallet_id UUID NOT NULL REFERENCES wallets(id),
        destination_wallet_id UUID REFERENCES wallets(id),
        kind VARCHAR(10) NOT NULL CHECK (kind IN ('income', 'expense', 'transfer')),
        amount NUMERIC(19, 4) NOT NULL CHECK (amount > 0),
        currency CHAR(3) NOT NULL,
        category VARCHAR(30) NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        notes TEXT NOT NULL DEFAULT '',
        source VARCHAR(20) NOT NULL DEFAULT 'manual',
        occurred_at TIMESTAMPTZ NOT NULL,
        created_by UUID NOT NULL REFERENCES users(id),
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        deleted_at TIMESTAMPTZ,
        CONSTRAINT transactions_destination_iff_transfer CHECK ((kind = 'transfer') = (destination_wallet_id IS NOT NULL))
    );
    CREATE INDEX IF NOT EXISTS idx_transactions_source_wallet ON transactions(source_wallet_id, occurred_at DESC);
    CREATE INDEX IF NOT EXISTS idx_transactions_destination_wallet ON transactions(destination_wallet_id, occurred_at DESC);`},

	{"debts", `
    CREATE TABLE IF NOT EXISTS debts (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        kind VARCHAR(12) NOT NULL CHECK (kind IN ('we_owe', 'owed_to_us', 'internal')),
        name VARCHAR(100) NOT NULL,
        total_amount NUMERIC(19, 4) NOT NULL CHECK (total_amount > 0),
        remaining_amount NUMERIC(19, 4) NOT NULL CHECK (remaining_amount >= 0),
        currency CHAR(3) NOT NULL,
        interest_rate NUMERIC(7, 4),
        due_date TIMESTAMPTZ,
        external_name VARCHAR(100) NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        deleted_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_debts_owner_id ON debts(owner_id) WHERE deleted_at IS NULL;

    CREATE TABLE IF NOT EXISTS debt_payments (
        id UUID PRIMARY KEY,
        debt_id UUID NOT NULL REFERENCES debts(id) ON DELETE CASCADE,
        amount NUMERIC(19, 4) NOT NULL CHECK (amount > 0),
        wallet_id UUID NOT NULL REFERENCES wallets(id),
        transaction_id UUID NOT NULL REFERENCES transactions(id),
        paid_at TIMESTAMPTZ NOT NULL,
        paid_by UUID NOT NULL REFERENCES users(id),
        deleted_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_debt_payments_debt_id ON debt_payments(debt_id);`},

	{"goals", `
    CREATE TABLE IF NOT EXISTS goals (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        name VARCHAR(100) NOT NULL,
        target_amount NUMERIC(19, 4) NOT NULL CHECK (target_amount > 0),
        current_amount NUMERIC(19, 4) NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
        currency CHAR(3) NOT NULL,
        target_date TIMESTAMPTZ,
        icon VARCHAR(50) NOT NULL DEFAULT '',
        color VARCHAR(20) NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        deleted_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_goals_owner_id ON goals(owner_id) WHERE deleted_at IS NULL;

    CREATE TABLE IF NOT EXISTS goal_contributions (
        id UUID PRIMARY KEY,
        goal_id UUID NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
        amount NUMERIC(19, 4) NOT NULL CHECK (amount > 0),
        wallet_id UUID NOT NULL REFERENCES wallets(id),
        transaction_id UUID NOT NULL REFERENCES transactions(id),
        type VARCHAR(12) NOT NULL CHECK (type IN ('contribution', 'withdrawal')),
        contributed_by UUID NOT NULL REFERENCES users(id),
        contributed_at TIMESTAMPTZ NOT NULL,
        note TEXT NOT NULL DEFAULT ''
    );
    CREATE INDEX IF NOT EXISTS idx_goal_contributions_goal_id ON goal_contributions(goal_id);`},

	{"partner_requests", `
    CREATE TABLE IF NOT EXISTS partner_requests (
        id UUID PRIMARY KEY,
        from_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        to_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        status VARCHAR(10) NOT NULL CHECK (status IN ('pending', 'accepted', 'declined', 'cancelled')),
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        responded_at TIMESTAMPTZ,
        CONSTRAINT partner_requests_not_self CHECK (from_user_id <> to_user_id)
    );
    -- one outbound pending request per user, and one pending request per pair in either direction
    CREATE UNIQUE INDEX IF NOT EXISTS idx_partner_requests_pending_sender
        ON partner_requests(from_user_id) WHERE status = 'pending';
    CREATE UNIQUE INDEX IF NOT EXISTS idx_partner_requests_pending_pair
        ON partner_requests(LEAST(from_user_id, to_user_id), GREATEST(from_user_id, to_user_id)) WHERE status = 'pending';
    CREATE INDEX IF NOT EXISTS idx_partner_requests_to_user ON partner_requests(to_user_id) WHERE status = 'pending';`},

	// databases created before amounts were stored at four decimal places
	{"amount_scale", `
    ALTER TABLE wallets ALTER COLUMN balance TYPE NUMERIC(19, 4), ALTER COLUMN initial_balance TYPE NUMERIC(19, 4);
    ALTER TABLE transactions ALTER COLUMN amount TYPE NUMERIC(19, 4);
    ALTER TABLE debts ALTER COLUMN total_amount TYPE NUMERIC(19, 4), ALTER COLUMN remaining_amount TYPE NUMERIC(19, 4);
    ALTER TABLE debt_payments ALTER COLUMN amount TYPE NUMERIC(19, 4);
    ALTER TABLE goals ALTER COLUMN target_amount TYPE NUMERIC(19, 4), ALTER COLUMN current_amount TYPE NUMERIC(19, 4);
    ALTER TABLE goal_contributions ALTER COLUMN amount TYPE NUMERIC(19, 4);`},

	{"audit_log", `
    CREATE TABLE IF NOT EXISTS audit_log (
        id UUID PRIMARY KEY,
        action VARCHAR(50) NOT NULL,
        actor_id UUID NOT NULL,
        metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
        created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);`},
}

// Migrate sets up the database schema
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Println("Starting database migration...")

	for _, step := range schema {
		if _, err := pool.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", step.name, err)
		}
		log.Printf("Migrated %s", step.name)
	}

	log.Println("Database migration completed successfully")
	return nil
}
