package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/testutil"
)

func TestPlatform(t *testing.T) {
	store := memstore.New()
	svc := NewService(store)
	ctx := context.Background()

	p, err := svc.Platform(ctx)
	require.NoError(t, err)
	assert.Equal(t, Platform{}, *p)

	client := testutil.User(t, store, models.RoleClient, "Wanjiru Kamau")
	testutil.Fundi(t, store, "Otieno Fundi", models.ApprovalApproved, "Plumbing")
	testutil.Fundi(t, store, "Achieng Pending", models.ApprovalPending, "Tiling")

	for _, status := range []models.JobStatus{models.JobCompleted, models.JobCompleted, models.JobOpen, models.JobCancelled} {
		require.NoError(t, store.Jobs.Create(ctx, &models.Job{
			ClientID: client.ID,
			Title:    "Job " + string(status),
			Budget:   1000,
			Status:   status,
		}))
	}

	p, err = svc.Platform(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.ApprovedFundis)
	assert.EqualValues(t, 3, p.Users)
	assert.EqualValues(t, 2, p.CompletedJobs)
}

func TestWatchedTables(t *testing.T) {
	assert.ElementsMatch(t, []string{models.TableUsers, models.TableFundiProfiles, models.TableJobs}, WatchedTables)
}
