package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransactionType classifies balance-affecting events.
type TransactionType string

const (
	TransactionTypePurchase     TransactionType = "purchase"
	TransactionTypeWelcomeBonus TransactionType = "welcome_bonus"
	TransactionTypeClaimDebit   TransactionType = "claim_debit"
	TransactionTypeClaimRefund  TransactionType = "claim_refund"
)

// CreditBalance is the per-company credit counter. Balance is mutated
// only through conditional UPDATE / upsert-increment statements, never by
// overwrite.
type CreditBalance struct {
	CompanyID   string    `gorm:"primaryKey;column:company_id"`
	Balance     int64     `gorm:"not null"`
	LastUpdated time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (CreditBalance) TableName() string { return "credit_balances" }

// CreditTransaction is the immutable record of one balance change. A
// record carrying a PaymentID doubles as the idempotency witness for
// webhook redeliveries of that payment.
type CreditTransaction struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	CompanyID    string          `gorm:"not null;index"`
	Type         TransactionType `gorm:"type:text;not null"`
	PaymentID    *string         `gorm:"type:text"`
	AmountCents  int64           `gorm:"not null;default:0"`
	Credits      int64           `gorm:"not null"`
	PackSize     *string         `gorm:"type:text"`
	MembershipID *string         `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName sets the database table name.
func (CreditTransaction) TableName() string { return "credit_transactions" }

// MembershipEvent is the witness record for lifecycle events that are
// not ledger changes themselves (install, uninstall).
type MembershipEvent struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	CompanyID    string         `gorm:"not null;uniqueIndex:ux_membership_events_scope,priority:1"`
	EventType    string         `gorm:"type:text;not null;uniqueIndex:ux_membership_events_scope,priority:2"`
	MembershipID string         `gorm:"type:text;not null;uniqueIndex:ux_membership_events_scope,priority:3"`
	Payload      datatypes.JSON `gorm:"type:text"`
	ProcessedAt  time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (MembershipEvent) TableName() string { return "membership_events" }
