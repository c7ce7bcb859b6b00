package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	"github.com/Sourasish2503/churn-buster-v9/internal/signing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// storedEvent is one row claimed from the outbox.
type storedEvent struct {
	ID        int64     `gorm:"column:id"`
	CompanyID string    `gorm:"column:company_id"`
	EventType string    `gorm:"column:event_type"`
	Payload   string    `gorm:"column:payload"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

type PublisherParams struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
}

// Publisher drains unpublished outbox rows on a poll interval. With a
// sink configured it POSTs each event as a signed JSON envelope; without
// one it just marks rows published so the table stays bounded.
type Publisher struct {
	db     *gorm.DB
	log    *zap.Logger
	cfg    config.Events
	secret string
	client *http.Client
}

func NewPublisher(p PublisherParams) *Publisher {
	return &Publisher{
		db:     p.DB,
		log:    p.Log.Named("events.publisher"),
		cfg:    p.Config.Events,
		secret: p.Config.Webhook.Secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// RunForever polls until the context is cancelled.
func (p *Publisher) RunForever(ctx context.Context) {
	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil {
			p.log.Warn("outbox publish run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch and reports how many events it handled.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	limit := p.cfg.BatchSize
	if limit <= 0 {
		limit = 100
	}

	var batch []storedEvent
	err := p.db.WithContext(ctx).Raw(
		`SELECT id, company_id, event_type, payload, created_at
		 FROM ledger_events
		 WHERE published = FALSE
		 ORDER BY id
		 LIMIT ?`,
		limit,
	).Scan(&batch).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range batch {
		if err := p.deliver(ctx, event); err != nil {
			// Stop at the first failure so events keep their order.
			p.log.Warn("event delivery failed",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			return published, err
		}
		if err := p.markPublished(ctx, event.ID); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (p *Publisher) deliver(ctx context.Context, event storedEvent) error {
	if p.cfg.SinkURL == "" {
		return nil
	}

	envelope := map[string]any{
		"id":         event.ID,
		"company_id": event.CompanyID,
		"type":       event.EventType,
		"payload":    json.RawMessage(event.Payload),
		"created_at": event.CreatedAt.UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.SinkURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.secret != "" {
		req.Header.Set("X-Churnbuster-Signature", signing.Sign(p.secret, body))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("event sink returned %d", resp.StatusCode)
	}
	return nil
}

func (p *Publisher) markPublished(ctx context.Context, eventID int64) error {
	return p.db.WithContext(ctx).Exec(
		`UPDATE ledger_events SET published = TRUE WHERE id = ?`,
		eventID,
	).Error
}
