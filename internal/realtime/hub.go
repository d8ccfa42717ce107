// internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

var ErrHubClosed = errors.New("realtime: hub stopped")

// Subscription is one (table, event, filter) interest held by a client.
type Subscription struct {
	Ref    string
	Table  string
	Event  EventType
	Filter Filter
}

func (s Subscription) Matches(ch Change, row map[string]interface{}) bool {
	if s.Table != ch.Table {
		return false
	}
	if s.Event != EventAll && s.Event != ch.Type {
		return false
	}
	return s.Filter.Match(row)
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Role   models.Role
	Conn   *WebSocketConn
	Send   chan []byte

	subs map[string]Subscription // guarded by Hub.mu
}

func NewClient(userID uuid.UUID, role models.Role, conn *WebSocketConn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		subs:   map[string]Subscription{},
	}
}

// Authorizer decides whether a client may see a row of a table.
type Authorizer func(c *Client, table string, row map[string]interface{}) bool

// DefaultAuthorizer keeps messages between their two parties and
// restriction, appeal and wallet rows with their owner or an admin. Users and
// fundi profiles reach everyone, redacted by publicColumns.
func DefaultAuthorizer(c *Client, table string, row map[string]interface{}) bool {
	uid := c.UserID.String()
	switch table {
	case models.TableMessages:
		return row["sender_id"] == uid || row["recipient_id"] == uid
	case models.TableRestrictions, models.TableAppeals, models.TableWallet:
		return c.Role == models.RoleAdmin || row["user_id"] == uid
	}
	return true
}

// projection is what a non-owner may see of a table carrying contact details.
type projection struct {
	owner   string
	columns []string
}

var publicColumns = map[string]projection{
	models.TableUsers: {owner: "id", columns: []string{
		"id", "full_name", "role", "avatar_url", "is_active", "created_at", "updated_at",
	}},
	models.TableFundiProfiles: {owner: "user_id", columns: []string{
		"id", "user_id", "location", "skills", "bio", "experience_years", "hourly_rate",
		"approval_status", "mobile_verified", "created_at", "updated_at",
	}},
}

// sees reports whether c gets the full row. Admins and the row owner do.
func (p projection) sees(c *Client, row map[string]interface{}) bool {
	return c.Role == models.RoleAdmin || row[p.owner] == c.UserID.String()
}

func (p projection) row(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(p.columns))
	for _, col := range p.columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func (p projection) raw(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	row := map[string]interface{}{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return json.Marshal(p.row(row))
}

// redact strips the record and old record down to the public columns.
func (p projection) redact(ch Change) (Change, error) {
	rec, err := p.raw(ch.Record)
	if err != nil {
		return Change{}, err
	}
	old, err := p.raw(ch.Old)
	if err != nil {
		return Change{}, err
	}
	ch.Record, ch.Old = rec, old
	return ch, nil
}

type Hub struct {
	clients    map[string]*Client
	changes    chan Change
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex

	authorize Authorizer
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		changes:    make(chan Change, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		authorize:  DefaultAuthorizer,
	}
}

func (h *Hub) SetAuthorizer(a Authorizer) {
	h.mu.Lock()
	h.authorize = a
	h.mu.Unlock()
}

func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe replaces any subscription with the same ref.
func (h *Hub) Subscribe(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client.subs == nil {
		client.subs = map[string]Subscription{}
	}
	client.subs[sub.Ref] = sub
}

func (h *Hub) Unsubscribe(client *Client, ref string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := client.subs[ref]
	delete(client.subs, ref)
	return ok
}

// Publish queues a change for fan-out. It implements Publisher.
func (h *Hub) Publish(ctx context.Context, ch Change) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.changes <- ch:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendFrame writes directly to one client without blocking.
func (h *Hub) SendFrame(client *Client, f Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		slog.Error("frame marshal failed", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	select {
	case client.Send <- payload:
	default:
		// kalau penuh, skip (jangan block)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for id, client := range h.clients {
			close(client.Send)
			delete(h.clients, id)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			slog.Debug("feed client registered", "client_id", client.ID, "user_id", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				slog.Debug("feed client unregistered", "client_id", client.ID)
			}
			h.mu.Unlock()

		case ch := <-h.changes:
			h.dispatch(ch)
		}
	}
}

func (h *Hub) dispatch(ch Change) {
	row, err := ch.Row()
	if err != nil {
		slog.Warn("change row undecodable", "table", ch.Table, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	proj, projected := publicColumns[ch.Table]
	var (
		public    *Change
		publicRow map[string]interface{}
	)

	for _, client := range h.clients {
		if !h.authorize(client, ch.Table, row) {
			continue
		}
		out, visible := ch, row
		if projected && !proj.sees(client, row) {
			if public == nil {
				red, err := proj.redact(ch)
				if err != nil {
					slog.Warn("change redaction failed", "table", ch.Table, "error", err)
					return
				}
				public, publicRow = &red, proj.row(row)
			}
			// filters only see public columns too
			out, visible = *public, publicRow
		}
		for _, sub := range client.subs {
			if !sub.Matches(out, visible) {
				continue
			}
			change := out
			payload, err := json.Marshal(Frame{Type: FrameChange, Ref: sub.Ref, Change: &change})
			if err != nil {
				slog.Error("change frame marshal failed", "error", err)
				continue
			}
			select {
			case client.Send <- payload:
			default:
				slog.Warn("feed client buffer full, change dropped", "client_id", client.ID, "table", ch.Table)
			}
		}
	}
}
