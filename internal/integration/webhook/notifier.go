// Package webhook pushes request lifecycle events to an external sync
// endpoint. Delivery is fire-and-forget from the caller's point of view:
// failures become sync_attempts rows and never affect the transition that
// triggered them.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"repairmatch/internal/pkg/clock"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/usecase/shared"
)

type Notifier struct {
	uow    shared.UnitOfWork
	client *http.Client
	clock  clock.Clock
	cfg    config.WebhookConfig
}

func NewNotifier(uow shared.UnitOfWork, clk clock.Clock, cfg config.WebhookConfig) *Notifier {
	return &Notifier{
		uow:    uow,
		client: &http.Client{Timeout: cfg.Timeout},
		clock:  clk,
		cfg:    cfg,
	}
}

type payload struct {
	RequestID  int64     `json:"request_id"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notify delivers asynchronously. With no endpoint configured it is a no-op.
func (n *Notifier) Notify(requestID int64, event string) {
	if n.cfg.URL == "" {
		return
	}
	go n.deliver(requestID, event)
}

func (n *Notifier) deliver(requestID int64, event string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout+time.Second)
	defer cancel()

	err := n.post(ctx, requestID, event)

	var detail *string
	if err != nil {
		msg := err.Error()
		detail = &msg
		slog.Warn("webhook delivery failed", "request_id", requestID, "event", event, "error", msg)
	}

	recordErr := n.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.SyncAttempts().Record(ctx, tx.DB(), requestID, event, err == nil, detail); err != nil {
			return err
		}
		if err == nil {
			return tx.Requests().SetLastSyncedAt(ctx, tx.DB(), requestID, n.clock.Now())
		}
		return nil
	})
	if recordErr != nil {
		slog.Error("failed to record sync attempt", "request_id", requestID, "error", recordErr.Error())
	}
}

func (n *Notifier) post(ctx context.Context, requestID int64, event string) error {
	body, err := json.Marshal(payload{
		RequestID:  requestID,
		Event:      event,
		OccurredAt: n.clock.Now(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}
