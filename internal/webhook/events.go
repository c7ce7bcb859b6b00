package webhook

import (
	"encoding/json"
	"errors"
	"strings"
)

// Actions delivered by the platform webhook.
const (
	ActionPaymentSucceeded          = "payment.succeeded"
	ActionMembershipWentValid       = "membership.went_valid"
	ActionMembershipWentInvalid     = "membership.went_invalid"
	ActionMembershipMetadataUpdated = "membership.metadata_updated"
)

var ErrMalformedPayload = errors.New("malformed_webhook_payload")

// Envelope is the outer shape of every webhook delivery.
type Envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// PaymentSucceeded describes a settled credit pack purchase. The buying
// company travels either on the payment itself or in the checkout
// metadata, depending on which checkout link was used.
type PaymentSucceeded struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	FinalAmount int64  `json:"final_amount"`
	Metadata    struct {
		CompanyID string `json:"company_id"`
		PackSize  string `json:"pack_size"`
	} `json:"metadata"`
}

// BuyerCompanyID resolves the purchasing company from the payment or
// its checkout metadata.
func (p PaymentSucceeded) BuyerCompanyID() string {
	if id := strings.TrimSpace(p.CompanyID); id != "" {
		return id
	}
	return strings.TrimSpace(p.Metadata.CompanyID)
}

// MembershipEvent describes a membership lifecycle transition.
type MembershipEvent struct {
	ID      string `json:"id"`
	Company struct {
		ID string `json:"id"`
	} `json:"company"`
	CompanyID string `json:"company_id"`
}

// OwnerCompanyID resolves the company a membership belongs to.
func (m MembershipEvent) OwnerCompanyID() string {
	if id := strings.TrimSpace(m.Company.ID); id != "" {
		return id
	}
	return strings.TrimSpace(m.CompanyID)
}

// ParseEnvelope decodes the outer webhook payload.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformedPayload
	}
	if strings.TrimSpace(env.Action) == "" {
		return nil, ErrMalformedPayload
	}
	return &env, nil
}
