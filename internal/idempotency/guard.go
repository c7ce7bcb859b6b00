package idempotency

import (
	"context"
	"strings"

	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Guard answers whether an inbound external event was already applied,
// using the transaction log and the membership event witnesses.
//
// The guard FAILS OPEN: if the existence check itself errors, it reports
// "not processed". A transient storage outage must not block legitimate
// payment processing; the accepted cost is a small double-credit window
// when an outage coincides with a redelivery.
type Guard struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewGuard(p Params) *Guard {
	return &Guard{
		db:    p.DB,
		log:   p.Log.Named("idempotency.guard"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// PaymentProcessed reports whether a purchase transaction already carries
// this payment id for the company.
func (g *Guard) PaymentProcessed(ctx context.Context, companyID, paymentID string) bool {
	companyID = strings.TrimSpace(companyID)
	paymentID = strings.TrimSpace(paymentID)
	if companyID == "" || paymentID == "" {
		return false
	}

	var count int64
	err := g.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM credit_transactions
		 WHERE company_id = ? AND payment_id = ? AND type = ?`,
		companyID,
		paymentID,
		ledgerdomain.TransactionTypePurchase,
	).Scan(&count).Error
	if err != nil {
		g.log.Warn("payment idempotency check failed, failing open",
			zap.String("company_id", companyID),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return false
	}
	return count > 0
}

// MembershipEventProcessed reports whether a lifecycle event witness
// exists for the (company, event type, membership) scope.
func (g *Guard) MembershipEventProcessed(ctx context.Context, companyID, eventType, membershipID string) bool {
	companyID = strings.TrimSpace(companyID)
	eventType = strings.TrimSpace(eventType)
	membershipID = strings.TrimSpace(membershipID)
	if companyID == "" || eventType == "" || membershipID == "" {
		return false
	}

	var count int64
	err := g.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM membership_events
		 WHERE company_id = ? AND event_type = ? AND membership_id = ?`,
		companyID,
		eventType,
		membershipID,
	).Scan(&count).Error
	if err != nil {
		g.log.Warn("membership idempotency check failed, failing open",
			zap.String("company_id", companyID),
			zap.String("event_type", eventType),
			zap.String("membership_id", membershipID),
			zap.Error(err),
		)
		return false
	}
	return count > 0
}

// RecordMembershipEvent writes the witness after a handler applied its
// effect. Recording is separate from checking, so a crash in between
// leaves an applied-but-unrecorded event; handlers keep their effects
// safely re-appliable within that window.
func (g *Guard) RecordMembershipEvent(ctx context.Context, companyID, eventType, membershipID string, payload []byte) error {
	companyID = strings.TrimSpace(companyID)
	eventType = strings.TrimSpace(eventType)
	membershipID = strings.TrimSpace(membershipID)
	if companyID == "" || eventType == "" || membershipID == "" {
		return gorm.ErrInvalidData
	}

	return g.db.WithContext(ctx).Exec(
		`INSERT INTO membership_events (id, company_id, event_type, membership_id, payload, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id, event_type, membership_id) DO NOTHING`,
		g.genID.Generate(),
		companyID,
		eventType,
		membershipID,
		datatypes.JSON(payload),
		g.clock.Now(),
	).Error
}
