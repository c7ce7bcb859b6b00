package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/audit/repository"
	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGINT PRIMARY KEY,
			company_id TEXT,
			actor_type TEXT NOT NULL,
			actor_id TEXT,
			action TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newAuditService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
}

func record(t *testing.T, svc domain.Service, companyID, action string, at time.Time) {
	t.Helper()
	err := svc.Record(context.Background(), &domain.AuditLog{
		CompanyID:  &companyID,
		ActorType:  string(domain.ActorTypeUser),
		Action:     action,
		TargetType: "membership",
		Metadata:   datatypes.JSONMap{"discount_percent": 30},
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestRecordAssignsDefaults(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditService(t, db)

	entry := &domain.AuditLog{
		Action:     domain.ActionConfigUpdated,
		TargetType: "company_config",
	}
	if err := svc.Record(context.Background(), entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
	if entry.ActorType != string(domain.ActorTypeSystem) {
		t.Fatalf("expected system actor default, got %q", entry.ActorType)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditService(t, db)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record(t, svc, "biz_1", domain.ActionClaimApplied, base.Add(time.Duration(i)*time.Minute))
	}
	record(t, svc, "biz_1", domain.ActionConfigUpdated, base.Add(10*time.Minute))
	record(t, svc, "biz_2", domain.ActionClaimApplied, base)

	entries, err := svc.List(ctx, domain.ListFilter{
		CompanyID: "biz_1",
		Action:    domain.ActionClaimApplied,
		Limit:     3,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].CreatedAt.After(entries[2].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}

	last := entries[len(entries)-1]
	rest, err := svc.List(ctx, domain.ListFilter{
		CompanyID: "biz_1",
		Action:    domain.ActionClaimApplied,
		Cursor:    &domain.Cursor{ID: last.ID, CreatedAt: last.CreatedAt},
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 remaining entries, got %d", len(rest))
	}
}

func TestCountByAction(t *testing.T) {
	db := setupAuditTestDB(t)
	svc := newAuditService(t, db)
	ctx := context.Background()

	now := time.Now().UTC()
	record(t, svc, "biz_1", domain.ActionClaimApplied, now)
	record(t, svc, "biz_1", domain.ActionClaimApplied, now)
	record(t, svc, "biz_1", domain.ActionConfigUpdated, now)

	count, err := svc.CountByAction(ctx, "biz_1", domain.ActionClaimApplied)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 saves, got %d", count)
	}
}
