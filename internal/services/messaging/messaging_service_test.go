package messaging

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/testutil"
)

func TestSendAndConversation(t *testing.T) {
	store := memstore.New()
	rec := &testutil.Recorder{}
	svc := NewService(store, rec)
	ctx := context.Background()

	a := testutil.User(t, store, models.RoleClient, "Alice Njeri")
	b := testutil.Fundi(t, store, "Bob Kamau", models.ApprovalApproved)

	id := uuid.New()
	m1, err := svc.Send(ctx, a.ID, SendInput{ID: &id, RecipientID: b.ID, Content: " Habari? "})
	require.NoError(t, err)
	assert.Equal(t, id, m1.ID)
	assert.Equal(t, "Habari?", m1.Content)

	// resend with the same id is idempotent
	again, err := svc.Send(ctx, a.ID, SendInput{ID: &id, RecipientID: b.ID, Content: "Habari?"})
	require.NoError(t, err)
	assert.Equal(t, id, again.ID)

	_, err = svc.Send(ctx, b.ID, SendInput{ID: &id, RecipientID: a.ID, Content: "hijack"})
	assert.ErrorIs(t, err, ErrMessageIDTaken)

	_, err = svc.Send(ctx, b.ID, SendInput{RecipientID: a.ID, Content: "Poa sana"})
	require.NoError(t, err)

	conv, err := svc.Conversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "Habari?", conv[0].Content)
	assert.Equal(t, "Poa sana", conv[1].Content)

	assert.Len(t, rec.For(models.TableMessages), 2)
}

func TestSend_Rejects(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, nil)
	ctx := context.Background()
	a := testutil.User(t, store, models.RoleClient, "Sender")

	_, err := svc.Send(ctx, a.ID, SendInput{RecipientID: uuid.New(), Content: "hello"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	_, err = svc.Send(ctx, a.ID, SendInput{RecipientID: a.ID, Content: "hello"})
	assert.ErrorIs(t, err, ErrSelfMessage)
	_, err = svc.Send(ctx, a.ID, SendInput{RecipientID: uuid.New(), Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = svc.Send(ctx, a.ID, SendInput{RecipientID: uuid.New(), Content: strings.Repeat("x", maxContent+1)})
	assert.ErrorIs(t, err, ErrMessageTooLong)
}
