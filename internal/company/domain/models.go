package domain

import (
	"context"
	"errors"
	"time"
)

// Status values for an installed company.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// DefaultDiscountPercent is offered when a company has not configured
// its own retention discount.
const DefaultDiscountPercent int64 = 30

var (
	ErrInvalidCompany  = errors.New("invalid_company")
	ErrInvalidDiscount = errors.New("invalid_discount_percent")
	ErrCompanyNotFound = errors.New("company_not_found")
)

// Company is one installation of the app. The id is the platform's
// company identifier; membership_id points at the installing membership.
type Company struct {
	ID            string `gorm:"primaryKey"`
	MembershipID  string `gorm:"type:text;not null"`
	Status        string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

func (Company) TableName() string { return "companies" }

// Config holds per-company retention settings.
type Config struct {
	CompanyID       string `gorm:"primaryKey"`
	DiscountPercent int64  `gorm:"not null;default:30"`
	UpdatedBy       *string
	UpdatedAt       time.Time
}

func (Config) TableName() string { return "company_configs" }

// Service manages company lifecycle and configuration.
type Service interface {
	// EnsureActive creates the company if missing, or reactivates it.
	// Returns true when a new row was created.
	EnsureActive(ctx context.Context, companyID, membershipID string) (bool, error)

	// Deactivate marks the company inactive. Unknown companies are a
	// no-op so lifecycle webhooks stay safe to redeliver.
	Deactivate(ctx context.Context, companyID string) error

	Get(ctx context.Context, companyID string) (*Company, error)

	// DiscountPercent returns the configured retention discount, or the
	// default when the company never set one.
	DiscountPercent(ctx context.Context, companyID string) (int64, error)

	SetDiscountPercent(ctx context.Context, companyID string, percent int64, updatedBy string) error
}
