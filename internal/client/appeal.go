package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

var (
	ErrEmptyAppeal   = errors.New("client: appeal message is empty")
	ErrNotRestricted = errors.New("client: account is not restricted")
	ErrAppealPending = errors.New("client: an appeal is already pending")
)

// AppealView is the surface a restricted user sees: their active restriction
// and its appeals.
type AppealView struct {
	sess *Session
	subs []*Subscription

	mu          sync.RWMutex
	restriction *models.Restriction
	closed      bool

	changed chan struct{}
}

func (s *Session) OpenAppeal(ctx context.Context) (*AppealView, error) {
	me := s.User().ID.String()
	v := &AppealView{sess: s, changed: make(chan struct{}, 1)}
	for _, table := range []string{models.TableRestrictions, models.TableAppeals} {
		v.subs = append(v.subs, s.Subscribe(SubscriptionSpec{
			Table:  table,
			Filter: "user_id=eq." + me,
		}, v.onChange, OnResync(v.refetch)))
	}
	if err := v.Refresh(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// Refresh re-reads the restriction. On failure the last state is kept.
func (v *AppealView) Refresh(ctx context.Context) error {
	var out struct {
		Restriction *models.Restriction `json:"restriction"`
	}
	if err := v.sess.API.Get(ctx, "/api/me/restriction", &out); err != nil {
		return v.sess.report(err, "Failed to load restriction")
	}
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	v.restriction = out.Restriction
	v.mu.Unlock()

	select {
	case v.changed <- struct{}{}:
	default:
	}
	return nil
}

func (v *AppealView) onChange(realtime.Change) { v.refetch() }

func (v *AppealView) refetch() {
	ctx, cancel := context.WithTimeout(context.Background(), v.sess.API.Timeout)
	defer cancel()
	if err := v.Refresh(ctx); err != nil && !errors.Is(err, ErrViewClosed) {
		slog.Warn("appeal refresh failed", "error", err)
		return
	}
	// A decided appeal may have lifted the restriction the session holds.
	if err := v.sess.Refresh(ctx); err != nil {
		slog.Warn("session refresh failed", "error", err)
	}
}

func (v *AppealView) Changes() <-chan struct{} { return v.changed }

// Restriction is a copy of the active restriction, nil when free.
func (v *AppealView) Restriction() *models.Restriction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.restriction == nil {
		return nil
	}
	r := *v.restriction
	r.Appeals = append([]models.Appeal(nil), v.restriction.Appeals...)
	return &r
}

func (v *AppealView) Restricted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.restriction != nil
}

func (v *AppealView) HasPendingAppeal() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.restriction.HasPendingAppeal()
}

// Submit files an appeal. It is refused locally, with no request, when the
// message is blank, the user is not restricted, or an appeal is pending.
func (v *AppealView) Submit(ctx context.Context, message string) (*models.Appeal, error) {
	message = strings.TrimSpace(message)
	switch {
	case message == "":
		v.sess.notify(Notification{Level: LevelError, Title: "Appeal message required"})
		return nil, ErrEmptyAppeal
	case !v.Restricted():
		return nil, ErrNotRestricted
	case v.HasPendingAppeal():
		v.sess.notify(Notification{Level: LevelInfo, Title: "Appeal pending", Message: "Your appeal is being reviewed"})
		return nil, ErrAppealPending
	}

	var appeal models.Appeal
	if err := v.sess.API.Post(ctx, "/api/me/restriction/appeals", map[string]string{"message": message}, &appeal); err != nil {
		return nil, v.sess.report(err, "Failed to submit appeal. Please try again.")
	}
	v.sess.notify(Notification{
		Level:   LevelSuccess,
		Title:   "Appeal Submitted",
		Message: "Your appeal has been submitted and will be reviewed by an administrator",
	})
	_ = v.Refresh(ctx)
	return &appeal, nil
}

func (v *AppealView) Close() {
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
