package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func recv(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case payload := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(payload, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return Frame{}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversMatchingChanges(t *testing.T) {
	h := startHub(t)
	ctx := context.Background()

	client := NewClient(uuid.New(), models.RoleFundi, nil)
	h.RegisterClient(client)

	f, err := ParseFilter("status=eq.open")
	require.NoError(t, err)
	h.Subscribe(client, Subscription{Ref: "open-jobs", Table: models.TableJobs, Event: EventAll, Filter: f})

	ch, err := NewChange(models.TableJobs, EventInsert, map[string]interface{}{"id": "j1", "status": "open"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx, ch))

	frame := recv(t, client)
	assert.Equal(t, FrameChange, frame.Type)
	assert.Equal(t, "open-jobs", frame.Ref)
	require.NotNil(t, frame.Change)
	assert.Equal(t, ch.ID, frame.Change.ID)

	other, err := NewChange(models.TableJobs, EventUpdate, map[string]interface{}{"id": "j1", "status": "accepted"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx, other))
	assertSilent(t, client)

	assert.True(t, h.Unsubscribe(client, "open-jobs"))
	require.NoError(t, h.Publish(ctx, ch))
	assertSilent(t, client)
}

func TestHub_EventFilter(t *testing.T) {
	h := startHub(t)
	client := NewClient(uuid.New(), models.RoleClient, nil)
	h.RegisterClient(client)
	h.Subscribe(client, Subscription{Ref: "r", Table: models.TableJobs, Event: EventDelete})

	ins, _ := NewChange(models.TableJobs, EventInsert, map[string]interface{}{"id": "j"}, nil)
	require.NoError(t, h.Publish(context.Background(), ins))
	assertSilent(t, client)

	del, _ := NewChange(models.TableJobs, EventDelete, nil, map[string]interface{}{"id": "j"})
	require.NoError(t, h.Publish(context.Background(), del))
	frame := recv(t, client)
	assert.Equal(t, EventDelete, frame.Change.Type)
}

func TestHub_MessagesOnlyReachParticipants(t *testing.T) {
	h := startHub(t)
	sender, recipient, stranger := uuid.New(), uuid.New(), uuid.New()

	a := NewClient(recipient, models.RoleFundi, nil)
	b := NewClient(stranger, models.RoleFundi, nil)
	h.RegisterClient(a)
	h.RegisterClient(b)
	h.Subscribe(a, Subscription{Ref: "m", Table: models.TableMessages, Event: EventInsert})
	h.Subscribe(b, Subscription{Ref: "m", Table: models.TableMessages, Event: EventInsert})

	ch, err := NewChange(models.TableMessages, EventInsert, map[string]interface{}{
		"id": uuid.NewString(), "sender_id": sender.String(), "recipient_id": recipient.String(), "content": "hi",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(context.Background(), ch))

	recv(t, a)
	assertSilent(t, b)
}

func TestHub_AdminSeesRestrictions(t *testing.T) {
	h := startHub(t)
	owner := uuid.New()

	admin := NewClient(uuid.New(), models.RoleAdmin, nil)
	other := NewClient(uuid.New(), models.RoleClient, nil)
	h.RegisterClient(admin)
	h.RegisterClient(other)
	h.Subscribe(admin, Subscription{Ref: "r", Table: models.TableRestrictions, Event: EventAll})
	h.Subscribe(other, Subscription{Ref: "r", Table: models.TableRestrictions, Event: EventAll})

	ch, _ := NewChange(models.TableRestrictions, EventInsert, map[string]interface{}{"user_id": owner.String()}, nil)
	require.NoError(t, h.Publish(context.Background(), ch))

	recv(t, admin)
	assertSilent(t, other)
}

func TestHub_UserRowsRedactedForOthers(t *testing.T) {
	h := startHub(t)
	owner := uuid.New()

	self := NewClient(owner, models.RoleClient, nil)
	stranger := NewClient(uuid.New(), models.RoleClient, nil)
	admin := NewClient(uuid.New(), models.RoleAdmin, nil)
	for _, c := range []*Client{self, stranger, admin} {
		h.RegisterClient(c)
		h.Subscribe(c, Subscription{Ref: "u", Table: models.TableUsers, Event: EventAll})
	}

	phone := "+254700000001"
	ch, err := NewChange(models.TableUsers, EventInsert, models.User{
		ID: owner, FullName: "Wanjiru Kamau", Email: "wanjiru@example.com", Phone: &phone, Role: models.RoleClient,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(context.Background(), ch))

	got := recv(t, stranger)
	require.NotNil(t, got.Change)
	rec := string(got.Change.Record)
	assert.Contains(t, rec, "Wanjiru Kamau")
	assert.NotContains(t, rec, "wanjiru@example.com")
	assert.NotContains(t, rec, phone)

	for _, c := range []*Client{self, admin} {
		full := recv(t, c)
		require.NotNil(t, full.Change)
		assert.Contains(t, string(full.Change.Record), "wanjiru@example.com")
	}
}

func TestHub_HiddenColumnsNotFilterable(t *testing.T) {
	h := startHub(t)
	stranger := NewClient(uuid.New(), models.RoleFundi, nil)
	h.RegisterClient(stranger)

	f, err := ParseFilter("mobile_number=eq.0700000001")
	require.NoError(t, err)
	h.Subscribe(stranger, Subscription{Ref: "p", Table: models.TableFundiProfiles, Event: EventAll, Filter: f})

	ch, err := NewChange(models.TableFundiProfiles, EventInsert, models.FundiProfile{
		ID: uuid.New(), UserID: uuid.New(), MobileNumber: "0700000001", Location: "Kisumu",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, h.Publish(context.Background(), ch))
	assertSilent(t, stranger)

	h.Subscribe(stranger, Subscription{Ref: "p", Table: models.TableFundiProfiles, Event: EventAll})
	require.NoError(t, h.Publish(context.Background(), ch))
	got := recv(t, stranger)
	require.NotNil(t, got.Change)
	assert.Contains(t, string(got.Change.Record), "Kisumu")
	assert.NotContains(t, string(got.Change.Record), "0700000001")
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	client := NewClient(uuid.New(), models.RoleClient, nil)
	h.RegisterClient(client)
	h.UnregisterClient(client)

	select {
	case _, ok := <-client.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() { h.Run(ctx); close(done) }()
	cancel()
	<-done

	client := NewClient(uuid.New(), models.RoleClient, nil)
	h.RegisterClient(client)
	h.UnregisterClient(client)
	ch, _ := NewChange(models.TableJobs, EventInsert, map[string]interface{}{}, nil)
	assert.ErrorIs(t, h.Publish(context.Background(), ch), ErrHubClosed)
}
