// Package redis carries change events between API replicas over Redis
// pub/sub. Each replica publishes to one channel and relays what it
// receives into its local changefeed.Hub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aidbridge-api/internal/changefeed"
	"github.com/aidbridge-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Broker is a changefeed.Broker backed by a Redis channel.
type Broker struct {
	client   *goredis.Client
	channel  string
	local    *changefeed.Hub
	relaying atomic.Bool
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

func NewBroker(client *goredis.Client, channel string, local *changefeed.Hub) *Broker {
	return &Broker{client: client, channel: channel, local: local}
}

// Publish sends ev to every replica, this one included. While the relay is
// down, local subscribers get ev straight from the hub.
func (b *Broker) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if !b.relaying.Load() {
		_ = b.local.Publish(ctx, ev)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w: %w", domain.ErrNetwork, err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, sub changefeed.Subscription) (<-chan domain.ChangeEvent, func()) {
	return b.local.Subscribe(ctx, sub)
}

// Relaying reports whether this replica is subscribed to the channel.
func (b *Broker) Relaying() bool { return b.relaying.Load() }

// Serve keeps Run going until ctx is done. A failed relay is restarted
// after a delay that doubles from minWait up to maxWait and resets once a
// subscription succeeds.
func (b *Broker) Serve(ctx context.Context, minWait, maxWait time.Duration) {
	wait := minWait
	for {
		subscribed, err := b.run(ctx)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			wait = minWait
		}
		slog.Error("change feed relay stopped, restarting", "channel", b.channel, "retry_in", wait, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, maxWait)
	}
}

// Run relays channel messages into the local hub until ctx is done.
func (b *Broker) Run(ctx context.Context) error {
	_, err := b.run(ctx)
	return err
}

var errRelayClosed = errors.New("relay channel closed")

func (b *Broker) run(ctx context.Context) (subscribed bool, err error) {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.relaying.Store(true)
	defer b.relaying.Store(false)
	slog.Info("change feed relay started", "channel", b.channel)

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return true, nil
				}
				return true, errRelayClosed
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("discarding malformed change event", "channel", b.channel, "err", err)
				continue
			}
			_ = b.local.Publish(ctx, ev)
		}
	}
}
