package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	companydomain "github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	"github.com/Sourasish2503/churn-buster-v9/internal/idempotency"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Ledger  ledgerdomain.Service
	Company companydomain.Service
	Audit   auditdomain.Service
	Guard   *idempotency.Guard
	Metrics *metrics.CreditMetrics
}

// Dispatcher verifies, parses and routes inbound platform webhooks.
//
// Handlers are written to be redelivery-safe: a processed delivery is
// acknowledged again without effect, and a storage failure surfaces as
// an error so the platform retries.
type Dispatcher struct {
	cfg     config.Config
	log     *zap.Logger
	ledger  ledgerdomain.Service
	company companydomain.Service
	audit   auditdomain.Service
	guard   *idempotency.Guard
	metrics *metrics.CreditMetrics
}

func NewDispatcher(p Params) *Dispatcher {
	return &Dispatcher{
		cfg:     p.Config,
		log:     p.Log.Named("webhook.dispatcher"),
		ledger:  p.Ledger,
		company: p.Company,
		audit:   p.Audit,
		guard:   p.Guard,
		metrics: p.Metrics,
	}
}

// Dispatch handles one raw webhook delivery. A nil return means the
// delivery is acknowledged; any error means the platform should retry.
func (d *Dispatcher) Dispatch(ctx context.Context, signature string, body []byte) error {
	if err := VerifySignature(d.cfg.Webhook.Secret, signature, body); err != nil {
		d.metrics.IncWebhookEvent("unknown", "rejected_signature")
		return err
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		d.metrics.IncWebhookEvent("unknown", "malformed")
		return err
	}

	switch env.Action {
	case ActionPaymentSucceeded:
		return d.handlePaymentSucceeded(ctx, env.Data)
	case ActionMembershipWentValid:
		return d.handleMembershipWentValid(ctx, env.Data)
	case ActionMembershipWentInvalid:
		return d.handleMembershipWentInvalid(ctx, env.Data)
	case ActionMembershipMetadataUpdated:
		// Fired for our own claim metadata writes; nothing to apply.
		d.log.Debug("membership metadata updated", zap.String("action", env.Action))
		d.metrics.IncWebhookEvent(env.Action, "ignored")
		return nil
	default:
		// Unknown actions are acknowledged so the platform does not
		// retry deliveries we will never handle.
		d.log.Debug("ignoring webhook action", zap.String("action", env.Action))
		d.metrics.IncWebhookEvent(env.Action, "ignored")
		return nil
	}
}

func (d *Dispatcher) handlePaymentSucceeded(ctx context.Context, data json.RawMessage) error {
	var payment PaymentSucceeded
	if err := json.Unmarshal(data, &payment); err != nil {
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "malformed")
		return ErrMalformedPayload
	}

	companyID := payment.BuyerCompanyID()
	if payment.ID == "" || companyID == "" {
		d.log.Warn("payment webhook missing payment or company id",
			zap.String("payment_id", payment.ID),
		)
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "ignored")
		return nil
	}

	if d.guard.PaymentProcessed(ctx, companyID, payment.ID) {
		d.log.Info("duplicate payment delivery acknowledged",
			zap.String("company_id", companyID),
			zap.String("payment_id", payment.ID),
		)
		d.metrics.IncDuplicateEvent("payment")
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "duplicate")
		return nil
	}

	credits := d.cfg.CreditsForAmount(payment.FinalAmount)
	if credits <= 0 {
		d.log.Warn("payment amount maps to zero credits",
			zap.String("company_id", companyID),
			zap.String("payment_id", payment.ID),
			zap.Int64("final_amount", payment.FinalAmount),
		)
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "ignored")
		return nil
	}

	if err := d.ledger.Credit(ctx, companyID, credits); err != nil {
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "error")
		return fmt.Errorf("grant purchased credits: %w", err)
	}
	d.metrics.AddCreditsGranted("purchase", credits)

	paymentID := payment.ID
	txn := &ledgerdomain.CreditTransaction{
		CompanyID:   companyID,
		Type:        ledgerdomain.TransactionTypePurchase,
		PaymentID:   &paymentID,
		AmountCents: payment.FinalAmount,
		Credits:     credits,
	}
	if size := payment.Metadata.PackSize; size != "" {
		txn.PackSize = &size
	}
	if err := d.ledger.RecordTransaction(ctx, txn); err != nil {
		// The grant stands; only the idempotency witness is missing, so
		// a redelivery inside this window can double-credit.
		d.log.Error("purchase transaction record failed",
			zap.String("company_id", companyID),
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "error")
		return err
	}

	d.recordAudit(ctx, companyID, auditdomain.ActionPaymentProcessed, "payment", payment.ID, datatypes.JSONMap{
		"amount_cents": payment.FinalAmount,
		"credits":      credits,
		"pack_size":    payment.Metadata.PackSize,
	})

	d.log.Info("credits granted for payment",
		zap.String("company_id", companyID),
		zap.String("payment_id", payment.ID),
		zap.Int64("credits", credits),
	)
	d.metrics.IncWebhookEvent(ActionPaymentSucceeded, "processed")
	return nil
}

func (d *Dispatcher) handleMembershipWentValid(ctx context.Context, data json.RawMessage) error {
	var event MembershipEvent
	if err := json.Unmarshal(data, &event); err != nil {
		d.metrics.IncWebhookEvent(ActionMembershipWentValid, "malformed")
		return ErrMalformedPayload
	}

	companyID := event.OwnerCompanyID()
	if event.ID == "" || companyID == "" {
		d.metrics.IncWebhookEvent(ActionMembershipWentValid, "ignored")
		return nil
	}

	if d.guard.MembershipEventProcessed(ctx, companyID, "went_valid", event.ID) {
		d.metrics.IncDuplicateEvent("membership")
		d.metrics.IncWebhookEvent(ActionMembershipWentValid, "duplicate")
		return nil
	}

	created, err := d.company.EnsureActive(ctx, companyID, event.ID)
	if err != nil {
		d.metrics.IncWebhookEvent(ActionMembershipWentValid, "error")
		return fmt.Errorf("activate company: %w", err)
	}

	if created && d.cfg.Credits.WelcomeBonus > 0 {
		bonus := d.cfg.Credits.WelcomeBonus
		if err := d.ledger.Credit(ctx, companyID, bonus); err != nil {
			d.metrics.IncWebhookEvent(ActionMembershipWentValid, "error")
			return fmt.Errorf("grant welcome bonus: %w", err)
		}
		d.metrics.AddCreditsGranted("welcome_bonus", bonus)

		membershipID := event.ID
		txn := &ledgerdomain.CreditTransaction{
			CompanyID:    companyID,
			Type:         ledgerdomain.TransactionTypeWelcomeBonus,
			Credits:      bonus,
			MembershipID: &membershipID,
		}
		if err := d.ledger.RecordTransaction(ctx, txn); err != nil {
			d.log.Error("welcome bonus transaction record failed",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
		}

		d.recordAudit(ctx, companyID, auditdomain.ActionCompanyInstalled, "membership", event.ID, datatypes.JSONMap{
			"welcome_bonus": bonus,
		})
		d.log.Info("welcome bonus granted",
			zap.String("company_id", companyID),
			zap.String("membership_id", event.ID),
			zap.Int64("credits", bonus),
		)
	}

	if err := d.guard.RecordMembershipEvent(ctx, companyID, "went_valid", event.ID, data); err != nil {
		d.log.Warn("membership event witness write failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
	}
	d.metrics.IncWebhookEvent(ActionMembershipWentValid, "processed")
	return nil
}

func (d *Dispatcher) handleMembershipWentInvalid(ctx context.Context, data json.RawMessage) error {
	var event MembershipEvent
	if err := json.Unmarshal(data, &event); err != nil {
		d.metrics.IncWebhookEvent(ActionMembershipWentInvalid, "malformed")
		return ErrMalformedPayload
	}

	companyID := event.OwnerCompanyID()
	if event.ID == "" || companyID == "" {
		d.metrics.IncWebhookEvent(ActionMembershipWentInvalid, "ignored")
		return nil
	}

	if d.guard.MembershipEventProcessed(ctx, companyID, "went_invalid", event.ID) {
		d.metrics.IncDuplicateEvent("membership")
		d.metrics.IncWebhookEvent(ActionMembershipWentInvalid, "duplicate")
		return nil
	}

	if err := d.company.Deactivate(ctx, companyID); err != nil {
		d.metrics.IncWebhookEvent(ActionMembershipWentInvalid, "error")
		return fmt.Errorf("deactivate company: %w", err)
	}

	if err := d.guard.RecordMembershipEvent(ctx, companyID, "went_invalid", event.ID, data); err != nil {
		d.log.Warn("membership event witness write failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
	}

	d.recordAudit(ctx, companyID, auditdomain.ActionCompanyRemoved, "membership", event.ID, nil)
	d.metrics.IncWebhookEvent(ActionMembershipWentInvalid, "processed")
	return nil
}

func (d *Dispatcher) recordAudit(ctx context.Context, companyID, action, targetType, targetID string, meta datatypes.JSONMap) {
	entry := &auditdomain.AuditLog{
		CompanyID:  &companyID,
		ActorType:  string(auditdomain.ActorTypeWebhook),
		Action:     action,
		TargetType: targetType,
		Metadata:   meta,
	}
	if targetID != "" {
		id := targetID
		entry.TargetID = &id
	}
	if err := d.audit.Record(ctx, entry); err != nil {
		d.log.Warn("webhook audit record failed",
			zap.String("company_id", companyID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
