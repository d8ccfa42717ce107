package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

// State is where a subscription is in its lifecycle.
type State string

const (
	StateConnecting State = "connecting"
	StateListening  State = "listening"
	StateBackingOff State = "backing_off"
	StateClosed     State = "closed"
)

var ErrSubscriptionRejected = errors.New("client: subscription rejected")

// SubscriptionSpec names the table slice to follow.
type SubscriptionSpec struct {
	Table  string
	Event  realtime.EventType
	Filter string
}

type SubscribeOption func(*Subscription)

// WithBackOff replaces the retry policy used between reconnects.
func WithBackOff(newBackOff func() backoff.BackOff) SubscribeOption {
	return func(s *Subscription) { s.newBackOff = newBackOff }
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(State)) SubscribeOption {
	return func(s *Subscription) { s.onState = fn }
}

// OnResync runs each time the subscription is listening again after a drop.
// Views use it to re-fetch what they missed while disconnected.
func OnResync(fn func()) SubscribeOption {
	return func(s *Subscription) { s.onResync = fn }
}

// DefaultBackOff is jittered exponential retry capped at 30s.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	return b
}

// Subscription follows one table slice over its own feed socket, reconnecting
// with backoff until closed.
type Subscription struct {
	Spec SubscriptionSpec

	ref        string
	dialer     Dialer
	token      func() string
	handle     func(realtime.Change)
	newBackOff func() backoff.BackOff
	onState    func(State)
	onResync   func()

	mu       sync.Mutex
	state    State
	err      error
	listened bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newSubscription(parent context.Context, d Dialer, token func() string, spec SubscriptionSpec, handle func(realtime.Change), opts ...SubscribeOption) *Subscription {
	if spec.Event == "" {
		spec.Event = realtime.EventAll
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription{
		Spec:       spec,
		ref:        uuid.NewString(),
		dialer:     d,
		token:      token,
		handle:     handle,
		newBackOff: DefaultBackOff,
		state:      StateConnecting,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run(ctx)
	return s
}

func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is why the subscription gave up, nil when it was closed on purpose.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close tears the subscription down and waits for its goroutine.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) setState(st State) {
	s.mu.Lock()
	if s.state == st {
		s.mu.Unlock()
		return
	}
	s.state = st
	resync := false
	if st == StateListening {
		resync = s.listened
		s.listened = true
	}
	hook := s.onState
	s.mu.Unlock()

	if hook != nil {
		hook(st)
	}
	if resync && s.onResync != nil {
		s.onResync()
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateClosed)

	b := s.newBackOff()
	for {
		s.setState(StateConnecting)
		err := s.listen(ctx, b)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrSubscriptionRejected) {
			slog.Warn("feed subscription stopped", "table", s.Spec.Table, "error", err)
			s.fail(err)
			return
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			s.fail(err)
			return
		}
		s.setState(StateBackingOff)
		slog.Debug("feed subscription retrying", "table", s.Spec.Table, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// listen runs one connection until it drops or ctx ends.
func (s *Subscription) listen(ctx context.Context, b backoff.BackOff) error {
	conn, err := s.dialer.Dial(ctx, s.token())
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	err = conn.WriteFrame(realtime.Frame{
		Type:   realtime.FrameSubscribe,
		Ref:    s.ref,
		Table:  s.Spec.Table,
		Event:  string(s.Spec.Event),
		Filter: s.Spec.Filter,
	})
	if err != nil {
		return err
	}

	for {
		f, err := conn.ReadFrame()
		if err != nil {
			return err
		}
		if f.Ref != s.ref {
			continue
		}
		switch f.Type {
		case realtime.FrameSubscribed:
			b.Reset()
			s.setState(StateListening)
		case realtime.FrameChange:
			if f.Change != nil && ctx.Err() == nil {
				s.handle(*f.Change)
			}
		case realtime.FrameError:
			if s.State() != StateListening {
				return fmt.Errorf("%w: %s", ErrSubscriptionRejected, f.Message)
			}
			slog.Warn("feed error frame", "table", s.Spec.Table, "message", f.Message)
		}
	}
}
