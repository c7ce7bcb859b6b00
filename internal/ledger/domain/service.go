package domain

import (
	"context"
	"errors"
)

// LedgerService owns the credit balance and the transaction log.
type LedgerService interface {
	// Debit atomically decrements the balance by one iff it is
	// positive, and reports whether a credit was consumed. A storage
	// error means no credit was consumed.
	Debit(ctx context.Context, companyID string) (bool, error)

	// Credit atomically increments the balance, creating the entry at
	// the given amount if the company has none yet.
	Credit(ctx context.Context, companyID string, amount int64) error

	// Balance reads the current balance for display. It must never be
	// used to gate a debit.
	Balance(ctx context.Context, companyID string) (int64, error)

	// RecordTransaction appends an immutable transaction record and
	// publishes the matching outbox event.
	RecordTransaction(ctx context.Context, txn *CreditTransaction) error
}

// Service is the package alias for LedgerService.
type Service = LedgerService

var (
	ErrInvalidCompany     = errors.New("invalid_company")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidTransaction = errors.New("invalid_transaction")
)
