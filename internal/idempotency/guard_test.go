package idempotency

import (
	"context"
	"fmt"
	"testing"

	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupGuardTestDB(t *testing.T) *gorm.DB {
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

	statements := []string{
		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id BIGINT PRIMARY KEY,
			company_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payment_id TEXT,
			amount_cents BIGINT NOT NULL DEFAULT 0,
			credits BIGINT NOT NULL,
			pack_size TEXT,
			membership_id TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS membership_events (
			id BIGINT PRIMARY KEY,
			company_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			membership_id TEXT NOT NULL,
			payload TEXT,
			processed_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_membership_events_scope
			ON membership_events (company_id, event_type, membership_id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newGuard(t *testing.T, db *gorm.DB, log *zap.Logger) *Guard {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return NewGuard(Params{DB: db, Log: log, GenID: node, Clock: clock.SystemClock{}})
}

func TestPaymentProcessed(t *testing.T) {
	db := setupGuardTestDB(t)
	guard := newGuard(t, db, nil)
	ctx := context.Background()

	if guard.PaymentProcessed(ctx, "biz_1", "pay_1") {
		t.Fatalf("expected unseen payment to be unprocessed")
	}

	if err := db.Exec(
		`INSERT INTO credit_transactions (id, company_id, type, payment_id, credits, created_at)
		 VALUES (1, 'biz_1', 'purchase', 'pay_1', 10, CURRENT_TIMESTAMP)`,
	).Error; err != nil {
		t.Fatalf("insert transaction: %v", err)
	}

	if !guard.PaymentProcessed(ctx, "biz_1", "pay_1") {
		t.Fatalf("expected recorded payment to be processed")
	}
	if guard.PaymentProcessed(ctx, "biz_2", "pay_1") {
		t.Fatalf("scope must include the company")
	}
}

func TestMembershipEventWitness(t *testing.T) {
	db := setupGuardTestDB(t)
	guard := newGuard(t, db, nil)
	ctx := context.Background()

	if guard.MembershipEventProcessed(ctx, "biz_1", "went_valid", "mem_1") {
		t.Fatalf("expected unseen event to be unprocessed")
	}

	if err := guard.RecordMembershipEvent(ctx, "biz_1", "went_valid", "mem_1", []byte(`{"id":"mem_1"}`)); err != nil {
		t.Fatalf("record event: %v", err)
	}
	if !guard.MembershipEventProcessed(ctx, "biz_1", "went_valid", "mem_1") {
		t.Fatalf("expected recorded event to be processed")
	}

	// Re-recording the same scope is a no-op, not an error.
	if err := guard.RecordMembershipEvent(ctx, "biz_1", "went_valid", "mem_1", nil); err != nil {
		t.Fatalf("re-record event: %v", err)
	}

	if guard.MembershipEventProcessed(ctx, "biz_1", "went_invalid", "mem_1") {
		t.Fatalf("scope must include the event type")
	}
}

func TestGuardFailsOpenOnStorageError(t *testing.T) {
	db := setupGuardTestDB(t)
	// Drop the table to force the existence check to error.
	if err := db.Exec(`DROP TABLE credit_transactions`).Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	guard := newGuard(t, db, zap.New(core))

	if guard.PaymentProcessed(context.Background(), "biz_1", "pay_1") {
		t.Fatalf("expected fail-open guard to report unprocessed")
	}
	if logs.FilterMessageSnippet("failing open").Len() == 0 {
		t.Fatalf("expected fail-open warning to be logged")
	}
}
