package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	claimdomain "github.com/Sourasish2503/churn-buster-v9/internal/claim/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	companydomain "github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability/metrics"
	"github.com/Sourasish2503/churn-buster-v9/internal/platform"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Ledger   ledgerdomain.Service
	Company  companydomain.Service
	Audit    auditdomain.Service
	Platform platform.Client
	Metrics  *metrics.CreditMetrics
	Clock    clock.Clock
}

type claimService struct {
	log      *zap.Logger
	ledger   ledgerdomain.Service
	company  companydomain.Service
	audit    auditdomain.Service
	platform platform.Client
	metrics  *metrics.CreditMetrics
	clock    clock.Clock
}

func NewService(p Params) claimdomain.Service {
	return &claimService{
		log:      p.Log.Named("claim.service"),
		ledger:   p.Ledger,
		company:  p.Company,
		audit:    p.Audit,
		platform: p.Platform,
		metrics:  p.Metrics,
		clock:    p.Clock,
	}
}

// Claim applies a retention offer in strict order: verify the
// membership, debit one credit, then write the offer metadata to the
// platform. Claimed state lives on the membership, so a debit whose
// metadata write fails must be compensated with a refund.
func (s *claimService) Claim(ctx context.Context, req claimdomain.Request) (*claimdomain.Result, error) {
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.MembershipID = strings.TrimSpace(req.MembershipID)
	if req.CompanyID == "" || req.MembershipID == "" {
		return nil, claimdomain.ErrInvalidRequest
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, claimdomain.ErrInvalidDiscount
	}
	if req.DiscountPercent == 0 {
		percent, err := s.company.DiscountPercent(ctx, req.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("resolve discount: %w", err)
		}
		req.DiscountPercent = percent
	}

	membership, err := s.platform.GetMembership(ctx, req.MembershipID)
	if err != nil {
		s.metrics.IncClaimOutcome("membership_lookup_failed")
		return nil, err
	}

	if req.ActorID != "" && membership.UserID != "" && membership.UserID != req.ActorID {
		s.metrics.IncClaimOutcome("not_owner")
		return nil, claimdomain.ErrNotOwner
	}

	if membership.Metadata[claimdomain.MetadataKeyClaimed] == "true" {
		s.metrics.IncClaimOutcome("already_claimed")
		return nil, claimdomain.ErrAlreadyClaimed
	}

	debited, err := s.ledger.Debit(ctx, req.CompanyID)
	if err != nil {
		s.metrics.IncClaimOutcome("debit_error")
		return nil, fmt.Errorf("debit credit: %w", err)
	}
	if !debited {
		s.metrics.IncClaimOutcome("no_credits")
		return nil, claimdomain.ErrNoCredits
	}
	s.metrics.IncCreditsDebited()

	claimedAt := s.clock.Now()
	update := map[string]string{
		claimdomain.MetadataKeyClaimed:  "true",
		claimdomain.MetadataKeyDiscount: strconv.FormatInt(req.DiscountPercent, 10),
		claimdomain.MetadataKeyDate:     claimedAt.UTC().Format(time.RFC3339),
	}
	if req.ExperienceID != "" {
		update[claimdomain.MetadataKeyExperience] = req.ExperienceID
	}
	if req.CancellationReason != "" {
		update[claimdomain.MetadataKeyReason] = req.CancellationReason
	}

	if err := s.platform.UpdateMembershipMetadata(ctx, req.MembershipID, update); err != nil {
		s.refund(ctx, req, err)
		s.metrics.IncClaimOutcome("metadata_update_failed")
		return nil, fmt.Errorf("apply offer metadata: %w", err)
	}

	s.recordClaim(ctx, req, claimedAt)
	s.metrics.IncClaimOutcome("applied")

	s.log.Info("retention offer applied",
		zap.String("company_id", req.CompanyID),
		zap.String("membership_id", req.MembershipID),
		zap.Int64("discount_percent", req.DiscountPercent),
	)

	return &claimdomain.Result{
		MembershipID:    req.MembershipID,
		DiscountPercent: req.DiscountPercent,
		ClaimedAt:       claimedAt,
	}, nil
}

// refund compensates a consumed credit after the metadata write failed.
// A failed refund is the one state that needs a human: the company paid
// a credit for nothing.
func (s *claimService) refund(ctx context.Context, req claimdomain.Request, cause error) {
	if err := s.ledger.Credit(ctx, req.CompanyID, 1); err != nil {
		s.metrics.IncRefundFailures()
		s.log.Error("credit refund failed after metadata update error",
			zap.String("company_id", req.CompanyID),
			zap.String("membership_id", req.MembershipID),
			zap.NamedError("update_error", cause),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncCreditsRefunded()

	txn := &ledgerdomain.CreditTransaction{
		CompanyID:    req.CompanyID,
		Type:         ledgerdomain.TransactionTypeClaimRefund,
		Credits:      1,
		MembershipID: &req.MembershipID,
	}
	if err := s.ledger.RecordTransaction(ctx, txn); err != nil {
		s.log.Warn("refund transaction record failed",
			zap.String("company_id", req.CompanyID),
			zap.Error(err),
		)
	}

	s.log.Warn("claim rolled back, credit refunded",
		zap.String("company_id", req.CompanyID),
		zap.String("membership_id", req.MembershipID),
		zap.Error(cause),
	)
}

// recordClaim writes the transaction log entry and the audit "save".
// Both are best-effort: the offer is already live on the membership.
func (s *claimService) recordClaim(ctx context.Context, req claimdomain.Request, claimedAt time.Time) {
	txn := &ledgerdomain.CreditTransaction{
		CompanyID:    req.CompanyID,
		Type:         ledgerdomain.TransactionTypeClaimDebit,
		Credits:      -1,
		MembershipID: &req.MembershipID,
		CreatedAt:    claimedAt,
	}
	if err := s.ledger.RecordTransaction(ctx, txn); err != nil {
		s.log.Warn("claim transaction record failed",
			zap.String("company_id", req.CompanyID),
			zap.Error(err),
		)
	}

	companyID := req.CompanyID
	membershipID := req.MembershipID
	entry := &auditdomain.AuditLog{
		CompanyID:  &companyID,
		ActorType:  string(auditdomain.ActorTypeUser),
		Action:     auditdomain.ActionClaimApplied,
		TargetType: "membership",
		TargetID:   &membershipID,
		Metadata: datatypes.JSONMap{
			"discount_percent":    req.DiscountPercent,
			"experience_id":       req.ExperienceID,
			"cancellation_reason": req.CancellationReason,
		},
		CreatedAt: claimedAt,
	}
	if req.ActorID != "" {
		actorID := req.ActorID
		entry.ActorID = &actorID
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("claim audit record failed",
			zap.String("company_id", req.CompanyID),
			zap.Error(err),
		)
	}
}
