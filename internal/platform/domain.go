package platform

import (
	"context"
	"errors"
	"net/http"
)

// Membership is the host platform's record of a member's subscription.
// The platform is the source of truth for claim deduplication: offer
// state lives in Metadata, not in this service's database.
type Membership struct {
	ID       string
	UserID   string
	Metadata map[string]string
}

// AccessResult reports whether an actor can reach a company or
// experience, and at what level.
type AccessResult struct {
	HasAccess   bool
	AccessLevel string
}

const AccessLevelAdmin = "admin"

// TokenVerifier validates the user token the platform injects into
// embedded app requests.
type TokenVerifier interface {
	VerifyActor(ctx context.Context, headers http.Header) (string, error)
}

// AccessChecker answers company/experience access questions.
type AccessChecker interface {
	CheckAccess(ctx context.Context, resourceID, actorID string) (AccessResult, error)
}

// MembershipAPI reads and mutates membership records on the platform.
type MembershipAPI interface {
	GetMembership(ctx context.Context, membershipID string) (*Membership, error)
	UpdateMembershipMetadata(ctx context.Context, membershipID string, metadata map[string]string) error
}

// Client bundles every platform capability this service consumes.
type Client interface {
	TokenVerifier
	AccessChecker
	MembershipAPI
}

var (
	ErrNotConfigured      = errors.New("platform_not_configured")
	ErrUnauthorized       = errors.New("platform_unauthorized")
	ErrMembershipNotFound = errors.New("membership_not_found")
	ErrUnavailable        = errors.New("platform_unavailable")
)
