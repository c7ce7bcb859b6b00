package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/Sourasish2503/churn-buster-v9/internal/events"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("ledger.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

// Debit consumes one credit. The WHERE clause carries the invariant: the
// row is only touched while the balance is positive, so concurrent debits
// against a balance of one resolve to exactly one success.
func (s *Service) Debit(ctx context.Context, companyID string) (bool, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return false, ledgerdomain.ErrInvalidCompany
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE credit_balances
		 SET balance = balance - 1, last_updated = ?
		 WHERE company_id = ? AND balance > 0`,
		s.clock.Now(),
		companyID,
	)
	if result.Error != nil {
		// Fail closed: an error means no credit was consumed.
		return false, fmt.Errorf("debit credit: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *Service) Credit(ctx context.Context, companyID string, amount int64) error {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return ledgerdomain.ErrInvalidCompany
	}
	if amount <= 0 {
		return ledgerdomain.ErrInvalidAmount
	}

	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO credit_balances (company_id, balance, last_updated)
		 VALUES (?, ?, ?)
		 ON CONFLICT (company_id) DO UPDATE
		 SET balance = credit_balances.balance + excluded.balance,
		     last_updated = excluded.last_updated`,
		companyID,
		amount,
		s.clock.Now(),
	).Error
	if err != nil {
		return fmt.Errorf("credit %d to %s: %w", amount, companyID, err)
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, companyID string) (int64, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return 0, ledgerdomain.ErrInvalidCompany
	}

	var balance int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(
			(SELECT balance FROM credit_balances WHERE company_id = ?), 0)`,
		companyID,
	).Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (s *Service) RecordTransaction(ctx context.Context, txn *ledgerdomain.CreditTransaction) error {
	if txn == nil {
		return ledgerdomain.ErrInvalidTransaction
	}
	txn.CompanyID = strings.TrimSpace(txn.CompanyID)
	if txn.CompanyID == "" {
		return ledgerdomain.ErrInvalidCompany
	}
	switch txn.Type {
	case ledgerdomain.TransactionTypePurchase,
		ledgerdomain.TransactionTypeWelcomeBonus,
		ledgerdomain.TransactionTypeClaimDebit,
		ledgerdomain.TransactionTypeClaimRefund:
	default:
		return ledgerdomain.ErrInvalidTransaction
	}
	if txn.Credits == 0 {
		return ledgerdomain.ErrInvalidTransaction
	}

	if txn.ID == 0 {
		txn.ID = s.genID.Generate()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = s.clock.Now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO credit_transactions
			 (id, company_id, type, payment_id, amount_cents, credits, pack_size, membership_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID,
			txn.CompanyID,
			txn.Type,
			txn.PaymentID,
			txn.AmountCents,
			txn.Credits,
			txn.PackSize,
			txn.MembershipID,
			txn.CreatedAt,
		).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: txn.CompanyID,
			Type:      eventTypeFor(txn.Type),
			DedupeKey: dedupeKeyFor(txn),
			Payload: events.CreditChangePayload{
				CompanyID:    txn.CompanyID,
				Credits:      txn.Credits,
				PaymentID:    txn.PaymentID,
				MembershipID: stringValue(txn.MembershipID),
			}.ToMap(),
		})
	})
}

func eventTypeFor(txnType ledgerdomain.TransactionType) string {
	switch txnType {
	case ledgerdomain.TransactionTypePurchase:
		return events.EventCreditsPurchased
	case ledgerdomain.TransactionTypeWelcomeBonus:
		return events.EventWelcomeBonus
	case ledgerdomain.TransactionTypeClaimRefund:
		return events.EventCreditRefunded
	default:
		return events.EventCreditClaimed
	}
}

func dedupeKeyFor(txn *ledgerdomain.CreditTransaction) string {
	switch {
	case txn.Type == ledgerdomain.TransactionTypePurchase && txn.PaymentID != nil:
		return "purchase:" + *txn.PaymentID
	case txn.Type == ledgerdomain.TransactionTypeWelcomeBonus && txn.MembershipID != nil:
		return "welcome:" + *txn.MembershipID
	default:
		return string(txn.Type) + ":" + txn.ID.String()
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
