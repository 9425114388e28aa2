package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
)

func writeEvent(w http.ResponseWriter, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to marshal realtime event", "error", err.Error())
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
}

// Bus carries events between instances. The local bus short-circuits to the
// hub; the redis bus additionally relays through pub/sub so every instance's
// hub sees every event.
type Bus interface {
	Publish(ctx context.Context, ev Event)
	Start(ctx context.Context) error
	Stop() error
}

type LocalBus struct {
	hub *Hub
}

func NewLocalBus(hub *Hub) *LocalBus {
	return &LocalBus{hub: hub}
}

func (b *LocalBus) Publish(_ context.Context, ev Event) { b.hub.Broadcast(ev) }
func (b *LocalBus) Start(context.Context) error         { return nil }
func (b *LocalBus) Stop() error                         { return nil }

type RedisBus struct {
	hub     *Hub
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
}

func NewRedisBus(hub *Hub, client *redis.Client, channel string) *RedisBus {
	return &RedisBus{hub: hub, client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to marshal bus event", "error", err.Error())
		return
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		// Local delivery keeps working on this instance even when the relay
		// is down.
		slog.Warn("failed to publish bus event, delivering locally", "error", err.Error())
		b.hub.Broadcast(ev)
	}
}

func (b *RedisBus) Start(ctx context.Context) error {
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	if _, err := b.pubsub.Receive(ctx); err != nil {
		return err
	}

	go func() {
		for msg := range b.pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("discarding malformed bus event", "error", err.Error())
				continue
			}
			b.hub.Broadcast(ev)
		}
	}()
	return nil
}

func (b *RedisBus) Stop() error {
	if b.pubsub != nil {
		return b.pubsub.Close()
	}
	return nil
}
