package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

func ParseEvent(s string) (EventType, bool) {
	switch EventType(s) {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return EventType(s), true
	case "":
		return EventAll, true
	}
	return "", false
}

// Change describes one committed row mutation on a table.
type Change struct {
	ID              string          `json:"id"`
	Table           string          `json:"table"`
	Type            EventType       `json:"type"`
	Record          json.RawMessage `json:"record,omitempty"`
	Old             json.RawMessage `json:"old_record,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// Row returns the decoded record, or the old record for deletes.
func (c Change) Row() (map[string]interface{}, error) {
	raw := c.Record
	if c.Type == EventDelete || len(raw) == 0 {
		raw = c.Old
	}
	row := map[string]interface{}{}
	if len(raw) == 0 {
		return row, nil
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func NewChange(table string, typ EventType, record, old interface{}) (Change, error) {
	ch := Change{
		ID:              uuid.NewString(),
		Table:           table,
		Type:            typ,
		CommitTimestamp: time.Now().UTC(),
	}
	if record != nil {
		b, err := json.Marshal(record)
		if err != nil {
			return Change{}, err
		}
		ch.Record = b
	}
	if old != nil {
		b, err := json.Marshal(old)
		if err != nil {
			return Change{}, err
		}
		ch.Old = b
	}
	return ch, nil
}

// Publisher delivers committed changes to feed subscribers.
type Publisher interface {
	Publish(ctx context.Context, ch Change) error
}

// Emit publishes after a mutation has committed. Failures are logged, not
// returned: the write already happened.
func Emit(ctx context.Context, pub Publisher, table string, typ EventType, record, old interface{}) {
	if pub == nil {
		return
	}
	ch, err := NewChange(table, typ, record, old)
	if err != nil {
		slog.Error("change encode failed", "table", table, "type", typ, "error", err)
		return
	}
	if err := pub.Publish(ctx, ch); err != nil {
		slog.Error("change publish failed", "table", table, "type", typ, "error", err)
	}
}

// Discard drops every change.
type Discard struct{}

func (Discard) Publish(context.Context, Change) error { return nil }
