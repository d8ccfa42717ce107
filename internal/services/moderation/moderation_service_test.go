package moderation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/testutil"
)

func TestRestrictAppealApprove(t *testing.T) {
	store := memstore.New()
	rec := &testutil.Recorder{}
	ms := NewModerationService(store, rec)
	ctx := context.Background()

	admin := testutil.User(t, store, models.RoleAdmin, "Admin User")
	user := testutil.Fundi(t, store, "Restricted Fundi", models.ApprovalApproved)

	none, err := ms.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
	_, err = ms.ActiveFor(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotRestricted)

	r, err := ms.Restrict(ctx, admin.ID, user.ID, "Repeated no-shows")
	require.NoError(t, err)
	assert.True(t, r.IsActive)

	_, err = ms.Restrict(ctx, admin.ID, user.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyRestricted)

	_, err = ms.SubmitAppeal(ctx, user.ID, r.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyAppeal)
	_, err = ms.SubmitAppeal(ctx, admin.ID, r.ID, "not mine")
	assert.ErrorIs(t, err, ErrNotYourRestriction)

	appeal, err := ms.SubmitAppeal(ctx, user.ID, r.ID, "I was in hospital")
	require.NoError(t, err)
	assert.True(t, appeal.Pending())

	_, err = ms.SubmitAppeal(ctx, user.ID, r.ID, "please")
	assert.ErrorIs(t, err, ErrAppealPending)

	active, err := ms.ActiveFor(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active.HasPendingAppeal())

	pending, err := ms.ListPendingAppeals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	resolved, err := ms.ResolveAppeal(ctx, admin.ID, appeal.ID, true, "Welcome back")
	require.NoError(t, err)
	assert.Equal(t, models.AppealApproved, resolved.Status)
	assert.Equal(t, "Welcome back", resolved.Response())

	current, err := ms.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	lifted, err := store.Restrictions.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, lifted.IsActive)
	require.NotNil(t, lifted.LiftedAt)

	_, err = ms.ResolveAppeal(ctx, admin.ID, appeal.ID, false, "")
	assert.ErrorIs(t, err, ErrAppealResolved)

	assert.Len(t, rec.For(models.TableRestrictions), 2)
	assert.Len(t, rec.For(models.TableAppeals), 2)
}

func TestRejectKeepsRestriction(t *testing.T) {
	store := memstore.New()
	ms := NewModerationService(store, nil)
	ctx := context.Background()
	admin := testutil.User(t, store, models.RoleAdmin, "Admin Two")
	user := testutil.User(t, store, models.RoleClient, "Client Two")

	r, err := ms.Restrict(ctx, admin.ID, user.ID, "Abusive messages")
	require.NoError(t, err)
	appeal, err := ms.SubmitAppeal(ctx, user.ID, r.ID, "Sorry")
	require.NoError(t, err)

	_, err = ms.ResolveAppeal(ctx, admin.ID, appeal.ID, false, "No")
	require.NoError(t, err)

	active, err := ms.ActiveFor(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active.HasPendingAppeal())

	// a fresh appeal is allowed once the previous one is resolved
	_, err = ms.SubmitAppeal(ctx, user.ID, r.ID, "Second try")
	assert.NoError(t, err)

	_, err = ms.Lift(ctx, admin.ID, r.ID)
	require.NoError(t, err)
	_, err = ms.Lift(ctx, admin.ID, r.ID)
	assert.ErrorIs(t, err, ErrNotRestricted)
	_, err = ms.SubmitAppeal(ctx, user.ID, r.ID, "Third")
	assert.ErrorIs(t, err, ErrNotRestricted)
}

func TestRestrict_Validation(t *testing.T) {
	store := memstore.New()
	ms := NewModerationService(store, nil)
	ctx := context.Background()
	admin := testutil.User(t, store, models.RoleAdmin, "Admin Three")

	_, err := ms.Restrict(ctx, admin.ID, uuid.New(), "reason")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = ms.Restrict(ctx, admin.ID, admin.ID, "reason")
	assert.ErrorIs(t, err, ErrSelfRestrict)
	_, err = ms.Restrict(ctx, admin.ID, uuid.New(), " ")
	assert.ErrorIs(t, err, ErrEmptyReason)
	_, err = ms.Lift(ctx, admin.ID, uuid.New())
	assert.ErrorIs(t, err, ErrRestrictionNotFound)
	_, err = ms.ResolveAppeal(ctx, admin.ID, uuid.New(), true, "")
	assert.ErrorIs(t, err, ErrAppealNotFound)
}
