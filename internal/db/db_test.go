package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), store.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), store.ErrNotFound)

	dup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_users_email"}
	err := mapErr(dup)
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
	assert.Contains(t, err.Error(), "idx_users_email")

	other := &pgconn.PgError{Code: "23503"}
	assert.Same(t, other, mapErr(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapErr(plain))
}

func TestIDStrings(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []string{a.String(), b.String()}, idStrings([]uuid.UUID{a, b, a}))
	assert.Empty(t, idStrings(nil))
}

func TestSchemaOrder(t *testing.T) {
	var names []string
	for _, step := range schema {
		names = append(names, step.name)
	}
	// referenced tables come first
	assert.Equal(t, []string{"users", "wallets", "transactions", "debts", "goals", "partner_requests", "amount_scale", "audit_log"}, names)
}

func TestSchemaAmountScale(t *testing.T) {
	// four decimal places hold every minor unit a currency can have
	for _, step := range schema {
		assert.NotContains(t, step.sql, "NUMERIC(18, 2)", step.name)
	}
	assert.Equal(t, int32(4), currency.Fraction("CLF"))
	assert.Equal(t, int32(3), currency.Fraction("KWD"))
}
