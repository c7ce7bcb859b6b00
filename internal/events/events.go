package events

// Ledger event types emitted on every balance-affecting write. Downstream
// consumers (exports, analytics) read these from the ledger_events table.
const (
	EventCreditsPurchased = "credits.purchased"
	EventWelcomeBonus     = "credits.welcome_bonus"
	EventCreditClaimed    = "credits.claimed"
	EventCreditRefunded   = "credits.refunded"
	EventCompanyInstalled = "company.installed"
	EventCompanyRemoved   = "company.removed"
)

// CreditChangePayload captures the minimal data needed to replay a
// balance change.
type CreditChangePayload struct {
	CompanyID    string  `json:"company_id"`
	Credits      int64   `json:"credits"`
	PaymentID    *string `json:"payment_id,omitempty"`
	MembershipID string  `json:"membership_id,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p CreditChangePayload) ToMap() map[string]any {
	payload := map[string]any{
		"company_id": p.CompanyID,
		"credits":    p.Credits,
	}
	if p.PaymentID != nil {
		payload["payment_id"] = *p.PaymentID
	}
	if p.MembershipID != "" {
		payload["membership_id"] = p.MembershipID
	}
	return payload
}
