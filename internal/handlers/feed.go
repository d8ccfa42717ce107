package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
)

type FeedHandler struct {
	Hub        *realtime.Hub
	RatePerSec float64
	Burst      int
}

func NewFeedHandler(hub *realtime.Hub, ratePerSec float64, burst int) *FeedHandler {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	if burst <= 0 {
		burst = 20
	}
	return &FeedHandler{Hub: hub, RatePerSec: ratePerSec, Burst: burst}
}

// Upgrade rejects plain HTTP requests and hands the session to the socket.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Serve runs one feed connection until either side closes it.
func (h *FeedHandler) Serve(c *websocket.Conn) {
	sess, ok := session.FromValue(c.Locals(session.LocalsKey))
	if !ok {
		_ = c.Close()
		return
	}

	conn := realtime.NewWebSocketConn(c)
	client := realtime.NewClient(sess.UserID, sess.Role, conn)
	if sess.IsAdmin() {
		client.Role = models.RoleAdmin
	}

	h.Hub.RegisterClient(client)
	slog.Info("feed connected", "user_id", sess.UserID, "client_id", client.ID)
	defer func() {
		h.Hub.UnregisterClient(client)
		slog.Info("feed disconnected", "user_id", sess.UserID, "client_id", client.ID)
	}()

	// hub -> socket
	go func() {
		for msg := range client.Send {
			if err := conn.WriteRaw(msg); err != nil {
				slog.Debug("feed write failed", "client_id", client.ID, "error", err)
				break
			}
		}
		_ = conn.Close()
	}()

	limiter := rate.NewLimiter(rate.Limit(h.RatePerSec), h.Burst)
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			var bad *realtime.BadFrameError
			if errors.As(err, &bad) {
				h.Hub.SendFrame(client, realtime.ErrorFrame("", bad.Error()))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("feed read failed", "client_id", client.ID, "error", err)
			}
			return
		}
		if !limiter.Allow() {
			h.Hub.SendFrame(client, realtime.ErrorFrame(f.Ref, "rate limit exceeded"))
			continue
		}
		h.Hub.SendFrame(client, h.handleFrame(client, f))
	}
}

// handleFrame applies one client frame and returns the reply.
func (h *FeedHandler) handleFrame(client *realtime.Client, f realtime.Frame) realtime.Frame {
	switch f.Type {
	case realtime.FramePing:
		return realtime.Frame{Type: realtime.FramePong, Ref: f.Ref}

	case realtime.FrameSubscribe:
		if f.Ref == "" {
			return realtime.ErrorFrame("", "subscribe needs a ref")
		}
		if !knownTable(f.Table) {
			return realtime.ErrorFrame(f.Ref, "unknown table "+f.Table)
		}
		event, ok := realtime.ParseEvent(f.Event)
		if !ok {
			return realtime.ErrorFrame(f.Ref, "unknown event "+f.Event)
		}
		filter, err := realtime.ParseFilter(f.Filter)
		if err != nil {
			return realtime.ErrorFrame(f.Ref, err.Error())
		}
		h.Hub.Subscribe(client, realtime.Subscription{Ref: f.Ref, Table: f.Table, Event: event, Filter: filter})
		return realtime.Frame{Type: realtime.FrameSubscribed, Ref: f.Ref, Table: f.Table, Event: string(event), Filter: filter.String()}

	case realtime.FrameUnsubscribe:
		if !h.Hub.Unsubscribe(client, f.Ref) {
			return realtime.ErrorFrame(f.Ref, "no such subscription")
		}
		return realtime.Frame{Type: realtime.FrameUnsubscribe, Ref: f.Ref}
	}
	return realtime.ErrorFrame(f.Ref, "unknown frame type "+f.Type)
}

func knownTable(t string) bool {
	for _, name := range models.Tables() {
		if name == t {
			return true
		}
	}
	return false
}
