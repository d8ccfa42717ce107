package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/stats"
)

// StatsView keeps the platform counters current. Any change to a counted
// table triggers a re-fetch.
type StatsView struct {
	sess *Session
	subs []*Subscription

	mu     sync.RWMutex
	stats  stats.Platform
	closed bool

	changed chan struct{}
}

func (s *Session) OpenStats(ctx context.Context) (*StatsView, error) {
	v := &StatsView{sess: s, changed: make(chan struct{}, 1)}
	for _, table := range stats.WatchedTables {
		v.subs = append(v.subs, s.Subscribe(SubscriptionSpec{Table: table}, v.onChange, OnResync(v.refetch)))
	}
	if err := v.Refresh(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func (v *StatsView) Refresh(ctx context.Context) error {
	var out stats.Platform
	if err := v.sess.API.Get(ctx, "/api/stats", &out); err != nil {
		return v.sess.report(err, "Failed to load stats")
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.stats = out
	v.mu.Unlock()

	select {
	case v.changed <- struct{}{}:
	default:
	}
	return nil
}

func (v *StatsView) onChange(realtime.Change) { v.refetch() }

func (v *StatsView) refetch() {
	ctx, cancel := context.WithTimeout(context.Background(), v.sess.API.Timeout)
	defer cancel()
	if err := v.Refresh(ctx); err != nil && !errors.Is(err, ErrViewClosed) {
		slog.Warn("stats refresh failed", "error", err)
	}
}

func (v *StatsView) Stats() stats.Platform {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats
}

func (v *StatsView) Changes() <-chan struct{} { return v.changed }

func (v *StatsView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()
	for _, sub := range v.subs {
		sub.Close()
	}
}
