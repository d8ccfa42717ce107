package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/testutil"
	"github.com/Bla-nqo/fundiconnect-builder/internal/utils"
)

const secret = "unit-test-secret"

func newService() *Service {
	return NewService(memstore.New(), &testutil.Recorder{}, secret, 60)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{FullName: "Grace Akinyi", Email: " Grace@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)
	assert.Equal(t, models.RoleClient, u.Role)
	assert.NotEqual(t, "secret123", u.Password)

	claims, err := utils.ParseJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "client", claims.Role)
	assert.Equal(t, []string{"client"}, claims.Roles)

	_, _, err = svc.Register(ctx, RegisterInput{FullName: "Dup", Email: "grace@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.Login(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, _, err := svc.Login(ctx, "GRACE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
}

func TestSwitchRole(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, RegisterInput{FullName: "Switcher", Email: "switch@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.SwitchRole(ctx, u.ID, models.RoleFundi)
	assert.ErrorIs(t, err, ErrRoleNotGranted)

	ok, err := svc.HasRole(ctx, u.ID, models.RoleFundi)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Store.Users.GrantRole(ctx, u.ID, models.RoleFundi))

	tok, err := svc.SwitchRole(ctx, u.ID, models.RoleFundi)
	require.NoError(t, err)
	claims, err := utils.ParseJWT(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "fundi", claims.Role)
	assert.ElementsMatch(t, []string{"client", "fundi"}, claims.Roles)

	ok, err = svc.HasRole(ctx, u.ID, models.RoleFundi)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasRole(ctx, uuid.New(), models.RoleClient)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertOAuthUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.UpsertOAuthUser(ctx, "Juma@Gmail.com", "Juma", "https://img/juma.png")
	require.NoError(t, err)
	assert.Equal(t, "juma@gmail.com", u.Email)
	assert.Equal(t, "https://img/juma.png", u.Avatar())

	again, err := svc.UpsertOAuthUser(ctx, "juma@gmail.com", "Juma Hassan", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Juma Hassan", again.FullName)

	n, err := svc.Store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, RegisterInput{FullName: "Off", Email: "off@example.com", Password: "secret123"})
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, svc.Store.Users.Update(ctx, u))

	_, _, err = svc.Login(ctx, "off@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInactive)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, email, password string) error {
	return m.Called(email, password).Error(0)
}

func (m *mockVerifier) Register(ctx context.Context, email, password string) error {
	return m.Called(email, password).Error(0)
}

func TestExternalVerifier(t *testing.T) {
	svc := newService()
	v := &mockVerifier{}
	svc.Verifier = v
	ctx := context.Background()

	v.On("Register", "ext@example.com", "pw123456").Return(nil).Once()
	v.On("Verify", "ext@example.com", "pw123456").Return(nil).Once()
	v.On("Verify", "ext@example.com", "bad").Return(errors.New("invalid login credentials")).Once()

	_, _, err := svc.Register(ctx, RegisterInput{FullName: "Ext", Email: "ext@example.com", Password: "pw123456"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ext@example.com", "pw123456")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "ext@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	v.AssertExpectations(t)
}

func TestGrantAdmins(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, RegisterInput{FullName: "Ops Desk", Email: "ops@example.com", Password: "secret123"})
	require.NoError(t, err)

	n, err := svc.GrantAdmins(ctx, []string{"OPS@example.com", "later@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	has, err := svc.HasRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, has)

	// idempotent on restart
	_, err = svc.GrantAdmins(ctx, []string{"ops@example.com"})
	assert.NoError(t, err)
}
