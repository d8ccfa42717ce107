package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBroker fans changes out through Redis pub/sub so every API instance
// delivers them to its own feed clients.
type RedisBroker struct {
	rdb    *redis.Client
	hub    *Hub
	prefix string
}

func NewRedisBroker(rdb *redis.Client, hub *Hub, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "changes:"
	}
	return &RedisBroker{rdb: rdb, hub: hub, prefix: prefix}
}

func (b *RedisBroker) Channel(table string) string {
	return b.prefix + table
}

// Publish implements Publisher.
func (b *RedisBroker) Publish(ctx context.Context, ch Change) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.Channel(ch.Table), payload).Err()
}

// Run relays every change published on the prefix into the local hub until
// ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.rdb.PSubscribe(ctx, b.prefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	slog.Info("change broker subscribed", "pattern", b.prefix+"*")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ch Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				slog.Warn("broker payload undecodable", "channel", msg.Channel, "error", err)
				continue
			}
			if ch.Table == "" {
				ch.Table = strings.TrimPrefix(msg.Channel, b.prefix)
			}
			if err := b.hub.Publish(ctx, ch); err != nil {
				return nil
			}
		}
	}
}
