package domain

import (
	"context"
	"errors"
	"time"
)

// Metadata keys written onto the platform membership when an offer is
// claimed. The claimed flag is the source of truth for deduplication.
const (
	MetadataKeyClaimed    = "retention_offer_claimed"
	MetadataKeyDiscount   = "retention_discount_percent"
	MetadataKeyDate       = "retention_date"
	MetadataKeyExperience = "retention_experience_id"
	MetadataKeyReason     = "retention_cancellation_reason"
)

var (
	ErrInvalidRequest  = errors.New("invalid_claim_request")
	ErrInvalidDiscount = errors.New("invalid_discount_percent")
	ErrNoCredits       = errors.New("insufficient_credits")
	ErrAlreadyClaimed  = errors.New("offer_already_claimed")
	ErrNotOwner        = errors.New("membership_not_owned")
)

// Request describes one retention offer claim. DiscountPercent of zero
// means "use the company's configured discount".
type Request struct {
	CompanyID          string
	MembershipID       string
	ExperienceID       string
	ActorID            string
	DiscountPercent    int64
	CancellationReason string
}

// Result reports an applied claim.
type Result struct {
	MembershipID    string    `json:"membership_id"`
	DiscountPercent int64     `json:"discount_percent"`
	ClaimedAt       time.Time `json:"claimed_at"`
}

// Service applies retention offers against platform memberships.
type Service interface {
	Claim(ctx context.Context, req Request) (*Result, error)
}
