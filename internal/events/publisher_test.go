package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupEventsTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS ledger_events (
			id BIGINT PRIMARY KEY,
			company_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_events_dedupe
			ON ledger_events (company_id, dedupe_key)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func publishTestEvents(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	outbox := NewOutbox(db, node)
	for i := 0; i < n; i++ {
		err := outbox.Publish(context.Background(), Event{
			CompanyID: "biz_1",
			Type:      EventCreditsPurchased,
			Payload:   map[string]any{"credits": 10},
			DedupeKey: fmt.Sprintf("purchase:pay_%d", i),
		})
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
}

func newPublisher(db *gorm.DB, sinkURL string) *Publisher {
	return NewPublisher(PublisherParams{
		DB:  db,
		Log: zap.NewNop(),
		Config: config.Config{
			Webhook: config.Webhook{Secret: "whsec_events"},
			Events: config.Events{
				SinkURL:      sinkURL,
				PollInterval: time.Second,
				BatchSize:    10,
			},
		},
	})
}

func unpublishedCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM ledger_events WHERE published = FALSE`,
	).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestPublisherDrainsWithoutSink(t *testing.T) {
	db := setupEventsTestDB(t)
	publishTestEvents(t, db, 3)

	publisher := newPublisher(db, "")
	published, err := publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if published != 3 {
		t.Fatalf("expected 3 published, got %d", published)
	}
	if remaining := unpublishedCount(t, db); remaining != 0 {
		t.Fatalf("expected drained outbox, %d left", remaining)
	}
}

func TestPublisherDeliversSignedEvents(t *testing.T) {
	db := setupEventsTestDB(t)
	publishTestEvents(t, db, 2)

	var received int
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
		if r.Header.Get("X-Churnbuster-Signature") == "" {
			t.Errorf("expected signed delivery")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	publisher := newPublisher(db, sink.URL)
	published, err := publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if published != 2 || received != 2 {
		t.Fatalf("expected 2 deliveries, published=%d received=%d", published, received)
	}
}

func TestPublisherStopsOnSinkFailure(t *testing.T) {
	db := setupEventsTestDB(t)
	publishTestEvents(t, db, 2)

	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer sink.Close()

	publisher := newPublisher(db, sink.URL)
	published, err := publisher.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	if published != 0 {
		t.Fatalf("expected no events marked published, got %d", published)
	}
	if remaining := unpublishedCount(t, db); remaining != 2 {
		t.Fatalf("expected 2 unpublished events, got %d", remaining)
	}
}
