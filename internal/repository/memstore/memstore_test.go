package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

func TestUsers_DuplicateEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Users.Create(ctx, &models.User{FullName: "A", Email: "a@example.com", Role: models.RoleClient}))
	err := store.Users.Create(ctx, &models.User{FullName: "B", Email: " A@Example.com ", Role: models.RoleClient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUsers_RolesIncludeGrants(t *testing.T) {
	store := New()
	ctx := context.Background()

	u := &models.User{FullName: "A", Email: "a@example.com", Role: models.RoleClient}
	require.NoError(t, store.Users.Create(ctx, u))
	require.NoError(t, store.Users.GrantRole(ctx, u.ID, models.RoleFundi))
	require.NoError(t, store.Users.GrantRole(ctx, u.ID, models.RoleFundi))

	roles, err := store.Users.Roles(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleClient, models.RoleFundi}, roles)
}

func TestJobs_AssignOnlyOnce(t *testing.T) {
	store := New()
	ctx := context.Background()

	job := &models.Job{ClientID: uuid.New(), Title: "Paint fence", Budget: 1000}
	require.NoError(t, store.Jobs.Create(ctx, job))
	assert.Equal(t, models.JobOpen, job.Status)

	first, second := uuid.New(), uuid.New()
	got, err := store.Jobs.Assign(ctx, job.ID, first, time.Now())
	require.NoError(t, err)
	assert.True(t, got.AssignedTo(first))
	assert.Equal(t, models.JobAccepted, got.Status)

	_, err = store.Jobs.Assign(ctx, job.ID, second, time.Now())
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = store.Jobs.Assign(ctx, uuid.New(), second, time.Now())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	open, err := store.Jobs.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestRestrictions_OnePendingAppeal(t *testing.T) {
	store := New()
	ctx := context.Background()

	res := &models.Restriction{UserID: uuid.New(), AdminID: uuid.New(), Reason: "spam"}
	require.NoError(t, store.Restrictions.Create(ctx, res))

	a := &models.Appeal{RestrictionID: res.ID, UserID: res.UserID, AppealMessage: "sorry"}
	require.NoError(t, store.Restrictions.CreateAppeal(ctx, a))
	err := store.Restrictions.CreateAppeal(ctx, &models.Appeal{RestrictionID: res.ID, UserID: res.UserID, AppealMessage: "again"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = store.Restrictions.ResolveAppeal(ctx, a.ID, models.AppealRejected, "no", uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Restrictions.CreateAppeal(ctx, &models.Appeal{RestrictionID: res.ID, UserID: res.UserID, AppealMessage: "third"}))

	loaded, err := store.Restrictions.ActiveForUser(ctx, res.UserID)
	require.NoError(t, err)
	assert.Len(t, loaded.Appeals, 2)
	assert.True(t, loaded.HasPendingAppeal())
}

func TestRestrictions_LiftIsLogical(t *testing.T) {
	store := New()
	ctx := context.Background()

	res := &models.Restriction{UserID: uuid.New(), AdminID: uuid.New(), Reason: "spam"}
	require.NoError(t, store.Restrictions.Create(ctx, res))

	lifted, err := store.Restrictions.Lift(ctx, res.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, lifted.IsActive)
	assert.NotNil(t, lifted.LiftedAt)

	_, err = store.Restrictions.Lift(ctx, res.ID, time.Now())
	assert.ErrorIs(t, err, repository.ErrConflict)

	still, err := store.Restrictions.FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, still.IsActive)

	_, err = store.Restrictions.ActiveForUser(ctx, res.UserID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWallet_DuplicateReference(t *testing.T) {
	store := New()
	ctx := context.Background()
	user, job := uuid.New(), uuid.New()

	require.NoError(t, store.Wallet.Record(ctx, &models.WalletTransaction{UserID: user, Amount: 500, Type: models.WalletTrxCredit, ReferenceID: &job}))
	err := store.Wallet.Record(ctx, &models.WalletTransaction{UserID: user, Amount: 500, Type: models.WalletTrxCredit, ReferenceID: &job})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	total, err := store.Wallet.Sum(ctx, user, models.WalletTrxCredit)
	require.NoError(t, err)
	assert.Equal(t, int64(500), total)
}
