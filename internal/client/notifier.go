package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a transient, user-facing message. Redirect is set when the
// user should be sent elsewhere ("/auth" to sign in, "/" when denied).
type Notification struct {
	Level    Level
	Title    string
	Message  string
	Redirect string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to slog.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	lvl := slog.LevelInfo
	if n.Level == LevelError {
		lvl = slog.LevelWarn
	}
	slog.Log(context.Background(), lvl, "notification", "title", n.Title, "message", n.Message, "redirect", n.Redirect)
}

// WriterNotifier prints one line per notification.
type WriterNotifier struct {
	W io.Writer
}

func (w WriterNotifier) Notify(n Notification) {
	line := n.Title
	if n.Message != "" {
		line += ": " + n.Message
	}
	if n.Level == LevelError {
		line = "! " + line
	}
	fmt.Fprintln(w.W, line)
}

// MemoryNotifier keeps every notification; handy in tests and scripts.
type MemoryNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (m *MemoryNotifier) Notify(n Notification) {
	m.mu.Lock()
	m.items = append(m.items, n)
	m.mu.Unlock()
}

func (m *MemoryNotifier) All() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.items))
	copy(out, m.items)
	return out
}

func (m *MemoryNotifier) Last() (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return Notification{}, false
	}
	return m.items[len(m.items)-1], true
}

// notificationFor turns an error into what the user should see. title is the
// generic failure text for the operation.
func notificationFor(err error, title string) Notification {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return Notification{Level: LevelError, Title: "Sign in required", Message: "Please sign in to continue", Redirect: "/auth"}
	case errors.Is(err, ErrForbidden):
		return Notification{Level: LevelError, Title: "Access Denied", Redirect: "/"}
	}
	n := Notification{Level: LevelError, Title: title}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Rejected() {
		n.Message = apiErr.Message
	}
	return n
}
