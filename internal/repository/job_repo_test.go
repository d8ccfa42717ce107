package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestJobRepository_ListOpen(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewJobRepository(gdb)

	jobID := uuid.New()
	clientID := uuid.New()
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE status = \$1 AND fundi_id IS NULL ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "fundi_id", "title", "budget", "skills", "status", "created_at", "updated_at"}).
			AddRow(jobID.String(), clientID.String(), nil, "Fix kitchen sink", int64(45000), []byte(`["Plumbing"]`), "open", created, created))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
			AddRow(clientID.String(), "Wanjiru Kamau", "wanjiru@example.com", "client"))

	jobs, err := repo.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)
	assert.Equal(t, int64(45000), jobs[0].Budget)
	assert.Equal(t, []string{"Plumbing"}, []string(jobs[0].Skills))
	assert.False(t, jobs[0].Assigned())
	require.NotNil(t, jobs[0].Client)
	assert.Equal(t, "Wanjiru Kamau", jobs[0].Client.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_AssignConflictWhenTaken(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewJobRepository(gdb)

	jobID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := repo.Assign(context.Background(), jobID, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_AssignMissingJob(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewJobRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := repo.Assign(context.Background(), uuid.New(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalletRepository_Sum(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewWalletRepository(gdb)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "wallet_transactions" WHERE user_id = \$1 AND type = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(90000)))

	total, err := repo.Sum(context.Background(), uuid.New(), models.WalletTrxCredit)
	require.NoError(t, err)
	assert.Equal(t, int64(90000), total)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translate(assert.AnError), assert.AnError)
}
