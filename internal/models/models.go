package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account in the system
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	DiscordID   string     `json:"discord_id,omitempty"`
	PartnerID   *uuid.UUID `json:"partner_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsPaired reports whether the user currently has a partner
func (u User) IsPaired() bool {
	return u.PartnerID != nil
}

// WalletKind is either personal or shared
type WalletKind string

const (
	WalletPersonal WalletKind = "personal"
	WalletShared   WalletKind = "shared"
)

// Valid reports whether k is a known wallet kind
func (k WalletKind) Valid() bool {
	return k == WalletPersonal || k == WalletShared
}

// Wallet is a named balance-holding account.
// Balance is a cache of InitialBalance plus the signed effect of every live transaction.
type Wallet struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Kind           WalletKind      `json:"kind"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	OwnerID        *uuid.UUID      `json:"owner_id,omitempty"` // nil only for legacy shared wallets
	Color          string          `json:"color,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// TransactionKind is income, expense or transfer
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// Valid reports whether k is a known transaction kind
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense || k == KindTransfer
}

// TransactionSource tells whether a transaction was entered by a user or synthesized
// as the balance side-effect of a debt payment or goal operation.
type TransactionSource string

const (
	SourceManual           TransactionSource = "manual"
	SourceDebtPayment      TransactionSource = "debt_payment"
	SourceGoalContribution TransactionSource = "goal_contribution"
)

// Transaction is an immutable ledger record. Amount is always positive; its direction
// comes from Kind and from which wallet field references the wallet in question.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	SourceWalletID      uuid.UUID         `json:"source_wallet_id"`
	DestinationWalletID *uuid.UUID        `json:"destination_wallet_id,omitempty"`
	Kind                TransactionKind   `json:"kind"`
	Amount              decimal.Decimal   `json:"amount"`
	Currency            string            `json:"currency"`
	Category            Category          `json:"category"`
	Description         string            `json:"description"`
	Notes               string            `json:"notes,omitempty"`
	Source              TransactionSource `json:"source"`
	OccurredAt          time.Time         `json:"occurred_at"`
	CreatedBy           uuid.UUID         `json:"created_by"`
	CreatedAt           time.Time         `json:"created_at"`
	DeletedAt           *time.Time        `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the transaction is soft-deleted
func (t Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// EffectOn returns the signed effect of t on walletID's balance.
// Deleted transactions still report their effect; callers filter them.
func (t Transaction) EffectOn(walletID uuid.UUID) decimal.Decimal {
	switch t.Kind {
	case KindIncome:
		if t.SourceWalletID == walletID {
			return t.Amount
		}
	case KindExpense:
		if t.SourceWalletID == walletID {
			return t.Amount.Neg()
		}
	case KindTransfer:
		if t.SourceWalletID == walletID {
			return t.Amount.Neg()
		}
		if t.DestinationWalletID != nil && *t.DestinationWalletID == walletID {
			return t.Amount
		}
	}
	return decimal.Zero
}

// WalletIDs returns every wallet the transaction references
func (t Transaction) WalletIDs() []uuid.UUID {
	ids := []uuid.UUID{t.SourceWalletID}
	if t.DestinationWalletID != nil {
		ids = append(ids, *t.DestinationWalletID)
	}
	return ids
}

// DebtKind tells who owes whom
type DebtKind string

const (
	DebtWeOwe    DebtKind = "we_owe"
	DebtOwedToUs DebtKind = "owed_to_us"
	DebtInternal DebtKind = "internal"
)

// Valid reports whether k is a known debt kind
func (k DebtKind) Valid() bool {
	return k == DebtWeOwe || k == DebtOwedToUs || k == DebtInternal
}

// Debt tracks money owed to or by the household
type Debt struct {
	ID              uuid.UUID        `json:"id"`
	OwnerID         uuid.UUID        `json:"owner_id"`
	Kind            DebtKind         `json:"kind"`
	Name            string           `json:"name"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	RemainingAmount decimal.Decimal  `json:"remaining_amount"`
	Currency        string           `json:"currency"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	ExternalName    string           `json:"external_name,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
}

// DebtPayment is an append-only record of a payment against a debt
type DebtPayment struct {
	ID            uuid.UUID       `json:"id"`
	DebtID        uuid.UUID       `json:"debt_id"`
	Amount        decimal.Decimal `json:"amount"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	PaidAt        time.Time       `json:"paid_at"`
	PaidBy        uuid.UUID       `json:"paid_by"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

// Goal is a savings target funded from wallets
type Goal struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Icon          string          `json:"icon,omitempty"`
	Color         string          `json:"color,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

// ContributionType is contribution or withdrawal
type ContributionType string

const (
	ContributionDeposit    ContributionType = "contribution"
	ContributionWithdrawal ContributionType = "withdrawal"
)

// GoalContribution is an append-only record of money moved into or out of a goal
type GoalContribution struct {
	ID            uuid.UUID        `json:"id"`
	GoalID        uuid.UUID        `json:"goal_id"`
	Amount        decimal.Decimal  `json:"amount"`
	WalletID      uuid.UUID        `json:"wallet_id"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	Type          ContributionType `json:"type"`
	ContributedBy uuid.UUID        `json:"contributed_by"`
	ContributedAt time.Time        `json:"contributed_at"`
	Note          string           `json:"note,omitempty"`
}

// RequestStatus is the lifecycle state of a partner request
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
)

// PartnerRequest asks ToUserID to pair with FromUserID
type PartnerRequest struct {
	ID          uuid.UUID     `json:"id"`
	FromUserID  uuid.UUID     `json:"from_user_id"`
	ToUserID    uuid.UUID     `json:"to_user_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// Involves reports whether the request is between a and b, in either direction
func (r PartnerRequest) Involves(a, b uuid.UUID) bool {
	return (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a)
}

// AuditEntry is one line of the activity log
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
