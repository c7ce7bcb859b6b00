package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeUser    ActorType = "user"
	ActorTypeSystem  ActorType = "system"
	ActorTypeWebhook ActorType = "webhook"
)

// Actions recorded by the app. ActionClaimApplied doubles as the "save"
// record behind the retention stats endpoint.
const (
	ActionClaimApplied     = "claim.applied"
	ActionConfigUpdated    = "config.updated"
	ActionPaymentProcessed = "payment.processed"
	ActionCompanyInstalled = "company.installed"
	ActionCompanyRemoved   = "company.removed"
)

// AuditLog captures an immutable record of a retention or billing action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	CompanyID  *string           `gorm:"type:text;index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
