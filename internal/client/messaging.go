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

var (
	ErrEmptyMessage = errors.New("client: message is empty")
	ErrViewClosed   = errors.New("client: view closed")
)

// Conversation mirrors the messages between the session user and one peer,
// oldest first.
type Conversation struct {
	Peer     uuid.UUID
	JobID    *uuid.UUID
	Messages *Mirror[models.Message]

	sess *Session
	me   uuid.UUID
	subs []*Subscription

	mu     sync.Mutex
	closed bool
}

func messageKey(m models.Message) uuid.UUID       { return m.ID }
func messageCreatedAt(m models.Message) time.Time { return m.CreatedAt }

// OpenConversation subscribes to both directions, then fetches the history.
// Rows seen on the feed before the fetch returns are kept.
func (s *Session) OpenConversation(ctx context.Context, peer uuid.UUID, jobID *uuid.UUID) (*Conversation, error) {
	me := s.User().ID
	if me == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	c := &Conversation{
		Peer:     peer,
		JobID:    jobID,
		Messages: NewMirror(messageKey, messageCreatedAt, true),
		sess:     s,
		me:       me,
	}

	for _, filter := range []string{
		"sender_id=eq." + peer.String() + ",recipient_id=eq." + me.String(),
		"sender_id=eq." + me.String() + ",recipient_id=eq." + peer.String(),
	} {
		c.subs = append(c.subs, s.Subscribe(SubscriptionSpec{
			Table:  models.TableMessages,
			Event:  realtime.EventInsert,
			Filter: filter,
		}, c.apply, OnResync(c.resync)))
	}

	if err := c.fetch(ctx); err != nil {
		c.Close()
		return nil, s.report(err, "Failed to load messages")
	}
	return c, nil
}

func (c *Conversation) fetch(ctx context.Context) error {
	var list []models.Message
	if err := c.sess.API.Get(ctx, "/api/messages/"+c.Peer.String(), &list); err != nil {
		return err
	}
	if c.isClosed() {
		return ErrViewClosed
	}
	c.Messages.UpsertAll(list)
	return nil
}

func (c *Conversation) apply(ch realtime.Change) {
	if c.isClosed() {
		return
	}
	if err := c.Messages.Apply(ch); err != nil {
		slog.Warn("message change dropped", "error", err)
	}
}

func (c *Conversation) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), c.sess.API.Timeout)
	defer cancel()
	if err := c.fetch(ctx); err != nil && !errors.Is(err, ErrViewClosed) {
		slog.Warn("conversation resync failed", "peer", c.Peer, "error", err)
	}
}

// Send posts a message under a client-chosen id and appends the stored row
// on success. The feed echo of the same row replaces it in place.
func (c *Conversation) Send(ctx context.Context, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if c.isClosed() {
		return nil, ErrViewClosed
	}

	body := map[string]interface{}{
		"id":           uuid.New(),
		"recipient_id": c.Peer,
		"content":      content,
	}
	if c.JobID != nil {
		body["job_id"] = *c.JobID
	}

	var msg models.Message
	if err := c.sess.API.Post(ctx, "/api/messages", body, &msg); err != nil {
		return nil, c.sess.report(err, "Failed to send message")
	}
	if c.isClosed() {
		return &msg, nil
	}
	c.Messages.Upsert(msg)
	return &msg, nil
}

// Mine reports whether m was sent by the session user.
func (c *Conversation) Mine(m models.Message) bool {
	return m.SenderID == c.me
}

func (c *Conversation) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conversation) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	for _, sub := range c.subs {
		sub.Close()
	}
}
