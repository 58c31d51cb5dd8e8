// Package store defines the persistence contract used by the ledger and pairing services.
//
// All reads and writes happen inside a unit of work opened with Store.WithTx. A unit of
// work either commits every write or none of them. The Lock* methods additionally take
// row-level locks (SELECT ... FOR UPDATE in Postgres) that serialize concurrent writers on
// the same wallet, debt, goal, request or user until the unit of work ends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups when no live row matches
var ErrNotFound = errors.New("store: not found")

// ErrUniqueViolation is returned when an insert breaks a uniqueness constraint
var ErrUniqueViolation = errors.New("store: unique violation")

// Store opens units of work and appends to the audit log
type Store interface {
	// WithTx runs fn in a unit of work. fn's error rolls everything back and is returned
	// unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// AppendAudit writes outside of any unit of work so that a failed ledger write is
	// never caused by the audit log, and vice versa.
	AppendAudit(ctx context.Context, e models.AuditEntry) error
	PruneAudit(ctx context.Context, before time.Time) (int64, error)
}

// TransactionFilter narrows ListTransactions
type TransactionFilter struct {
	WalletIDs      []uuid.UUID // empty means every wallet
	From, To       *time.Time  // inclusive bounds on OccurredAt
	IncludeDeleted bool
	Limit          int // 0 means no limit
}

// Tx is a unit of work
type Tx interface {
	UserTx
	WalletTx
	TransactionTx
	DebtTx
	GoalTx
	PartnerRequestTx
}

// UserTx covers users and the partner link
type UserTx interface {
	InsertUser(ctx context.Context, u models.User) error
	User(ctx context.Context, id uuid.UUID) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByDiscordID(ctx context.Context, discordID string) (models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, email, displayName string) error
	// LockUsers locks the given users in a deterministic order and returns them keyed by id.
	LockUsers(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.User, error)
	// SetPartner sets id's partner to partnerID only if its current partner equals expect.
	// It reports whether the row was updated.
	SetPartner(ctx context.Context, id uuid.UUID, expect, partnerID *uuid.UUID) (bool, error)
}

// WalletTx covers wallets
type WalletTx interface {
	InsertWallet(ctx context.Context, w models.Wallet) error
	Wallet(ctx context.Context, id uuid.UUID) (models.Wallet, error)
	// LockWallets locks the given live wallets in a deterministic order.
	LockWallets(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]models.Wallet, error)
	// WalletsFor returns live wallets owned by any of owners.
	WalletsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Wallet, error)
	AllWallets(ctx context.Context) ([]models.Wallet, error)
	UpdateWalletDetails(ctx context.Context, w models.Wallet) error
	SetWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	SoftDeleteWallet(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TransactionTx covers ledger transactions
type TransactionTx interface {
	InsertTransaction(ctx context.Context, t models.Transaction) error
	// LockTransaction returns the transaction, deleted or not, locked for update.
	LockTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error)
	UpdateTransactionDetails(ctx context.Context, t models.Transaction) error
	SetTransactionDeleted(ctx context.Context, id uuid.UUID, at *time.Time) error
	HardDeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// DebtTx covers debts and their payments
type DebtTx interface {
	InsertDebt(ctx context.Context, d models.Debt) error
	LockDebt(ctx context.Context, id uuid.UUID) (models.Debt, error)
	DebtsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Debt, error)
	SetDebtRemaining(ctx context.Context, id uuid.UUID, remaining decimal.Decimal) error
	// SoftDeleteDebt marks the debt and all of its payments deleted.
	SoftDeleteDebt(ctx context.Context, id uuid.UUID, at time.Time) error
	InsertDebtPayment(ctx context.Context, p models.DebtPayment) error
	DebtPayments(ctx context.Context, debtID uuid.UUID) ([]models.DebtPayment, error)
}

// GoalTx covers goals and their contribution log
type GoalTx interface {
	InsertGoal(ctx context.Context, g models.Goal) error
	LockGoal(ctx context.Context, id uuid.UUID) (models.Goal, error)
	GoalsFor(ctx context.Context, owners ...uuid.UUID) ([]models.Goal, error)
	UpdateGoalDetails(ctx context.Context, g models.Goal) error
	SetGoalAmount(ctx context.Context, id uuid.UUID, current decimal.Decimal) error
	SoftDeleteGoal(ctx context.Context, id uuid.UUID, at time.Time) error
	InsertGoalContribution(ctx context.Context, c models.GoalContribution) error
	GoalContributions(ctx context.Context, goalID uuid.UUID) ([]models.GoalContribution, error)
}

// PartnerRequestTx covers partner requests
type PartnerRequestTx interface {
	InsertPartnerRequest(ctx context.Context, r models.PartnerRequest) error
	LockPartnerRequest(ctx context.Context, id uuid.UUID) (models.PartnerRequest, error)
	// PendingRequests returns pending requests sent or received by userID.
	PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PartnerRequest, error)
	SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) error
}
