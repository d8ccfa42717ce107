package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Notifier Notifier
	// Dialer defaults to a WSDialer on BaseURL.
	Dialer Dialer
	// Subscribe is applied to every subscription the session opens.
	Subscribe []SubscribeOption
}

// User is the signed-in identity as GET /api/me reports it.
type User struct {
	ID          uuid.UUID           `json:"id"`
	FullName    string              `json:"full_name"`
	Email       string              `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	Role        models.Role         `json:"role"`
	AvatarURL   *string             `json:"avatar_url,omitempty"`
	Roles       []models.Role       `json:"roles"`
	ActingAs    models.Role         `json:"acting_as"`
	Restriction *models.Restriction `json:"restriction"`
}

func (u User) HasRole(r models.Role) bool {
	if u.Role == r {
		return true
	}
	for _, got := range u.Roles {
		if got == r {
			return true
		}
	}
	return false
}

// Session is the one place the signed-in identity lives. Views read the user
// from it and every subscription they open is tracked here, so SignOut tears
// all of them down.
type Session struct {
	API *API

	notifier Notifier
	dialer   Dialer
	subOpts  []SubscribeOption

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	user User
	subs map[*Subscription]struct{}
}

func newSession(opts Options) *Session {
	api := NewAPI(opts.BaseURL)
	if opts.Timeout > 0 {
		api.Timeout = opts.Timeout
	}
	n := opts.Notifier
	if n == nil {
		n = LogNotifier{}
	}
	d := opts.Dialer
	if d == nil {
		d = NewWSDialer(opts.BaseURL)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		API:      api,
		notifier: n,
		dialer:   d,
		subOpts:  opts.Subscribe,
		ctx:      ctx,
		cancel:   cancel,
		subs:     map[*Subscription]struct{}{},
	}
}

// SignIn logs in with email and password and loads the session.
func SignIn(ctx context.Context, opts Options, email, password string) (*Session, error) {
	s := newSession(opts)
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	if err := s.API.Post(ctx, "/api/auth/login", body, &out); err != nil {
		s.cancel()
		// a 401 here means bad credentials, not a missing session
		n := Notification{Level: LevelError, Title: "Sign in failed"}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			n.Message = apiErr.Message
		}
		s.notify(n)
		return nil, err
	}
	s.API.SetToken(out.Token)
	if err := s.Refresh(ctx); err != nil {
		s.cancel()
		return nil, err
	}
	slog.Debug("signed in", "user_id", s.User().ID)
	return s, nil
}

// Register creates a client account and signs it in.
func Register(ctx context.Context, opts Options, fullName, email, password string) (*Session, error) {
	s := newSession(opts)
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{
		"full_name": strings.TrimSpace(fullName),
		"email":     strings.TrimSpace(email),
		"password":  password,
	}
	if err := s.API.Post(ctx, "/api/auth/register", body, &out); err != nil {
		s.cancel()
		s.notify(notificationFor(err, "Registration failed"))
		return nil, err
	}
	s.API.SetToken(out.Token)
	if err := s.Refresh(ctx); err != nil {
		s.cancel()
		return nil, err
	}
	return s, nil
}

// Resume restores a session from a saved token.
func Resume(ctx context.Context, opts Options, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	s := newSession(opts)
	s.API.SetToken(token)
	if err := s.Refresh(ctx); err != nil {
		s.cancel()
		return nil, err
	}
	return s, nil
}

// Refresh reloads the user, roles and restriction.
func (s *Session) Refresh(ctx context.Context) error {
	var u User
	if err := s.API.Get(ctx, "/api/me", &u); err != nil {
		s.notify(notificationFor(err, "Failed to load your account"))
		return err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role is the role the current token acts as.
func (s *Session) Role() models.Role {
	u := s.User()
	if u.ActingAs != "" {
		return u.ActingAs
	}
	return u.Role
}

func (s *Session) Restricted() bool {
	return s.User().Restriction != nil
}

// SwitchRole reissues the token acting as another granted role.
func (s *Session) SwitchRole(ctx context.Context, role models.Role) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := s.API.Post(ctx, "/api/me/role", map[string]string{"role": string(role)}, &out); err != nil {
		s.notify(notificationFor(err, "Failed to switch role"))
		return err
	}
	s.API.SetToken(out.Token)
	return s.Refresh(ctx)
}

// Subscribe opens a tracked subscription. handle runs on the subscription's
// goroutine.
func (s *Session) Subscribe(spec SubscriptionSpec, handle func(realtime.Change), opts ...SubscribeOption) *Subscription {
	all := make([]SubscribeOption, 0, len(s.subOpts)+len(opts))
	all = append(all, s.subOpts...)
	all = append(all, opts...)

	sub := newSubscription(s.ctx, s.dialer, s.API.Token, spec, handle, all...)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-sub.Done()
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		if err := sub.Err(); err != nil {
			s.notify(notificationFor(err, "Live updates stopped"))
		}
	}()
	return sub
}

// Subscriptions is the number of subscriptions still open.
func (s *Session) Subscriptions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// SignOut closes every subscription, then logs out server side. The local
// token is cleared even when the logout call fails.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.RLock()
	open := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		open = append(open, sub)
	}
	s.mu.RUnlock()

	s.cancel()
	for _, sub := range open {
		<-sub.Done()
	}

	_, err := s.API.Do(ctx, "POST", "/api/auth/logout", nil, nil)
	s.API.SetToken("")
	s.mu.Lock()
	s.user = User{}
	s.mu.Unlock()
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return nil
}

func (s *Session) notify(n Notification) {
	s.notifier.Notify(n)
}

// report notifies the user about err and hands it back.
func (s *Session) report(err error, title string) error {
	s.notify(notificationFor(err, title))
	return err
}
