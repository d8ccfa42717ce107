// Package testutil builds fixtures over the in-memory store.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

// Recorder is a Publisher that keeps every change it receives.
type Recorder struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (r *Recorder) Publish(ctx context.Context, ch realtime.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, ch)
	return nil
}

// For returns the recorded changes on one table, oldest first.
func (r *Recorder) For(table string) []realtime.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Change
	for _, ch := range r.changes {
		if ch.Table == table {
			out = append(out, ch)
		}
	}
	return out
}

func User(t *testing.T, store *repository.Store, role models.Role, name string) *models.User {
	t.Helper()
	u := &models.User{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

// Fundi creates a fundi user with a profile in the given approval state.
func Fundi(t *testing.T, store *repository.Store, name string, status models.ApprovalStatus, skills ...string) *models.User {
	t.Helper()
	ctx := context.Background()
	u := User(t, store, models.RoleFundi, name)
	p := &models.FundiProfile{
		UserID:         u.ID,
		MobileNumber:   "0700000000",
		Skills:         skills,
		ApprovalStatus: status,
	}
	require.NoError(t, store.Fundis.Create(ctx, p))
	require.NoError(t, store.Users.GrantRole(ctx, u.ID, models.RoleFundi))
	return u
}
