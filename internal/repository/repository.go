package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means a conditional update matched the row but not its
	// expected state.
	ErrConflict = errors.New("conflicting update")
)

// UserRepository defines operations for users and their granted roles
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	GrantRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	Roles(ctx context.Context, userID uuid.UUID) ([]models.Role, error)
	Count(ctx context.Context) (int64, error)
}

// FundiRepository defines operations for fundi profiles
type FundiRepository interface {
	Create(ctx context.Context, profile *models.FundiProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FundiProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FundiProfile, error)
	ListByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.FundiProfile, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, at time.Time) (*models.FundiProfile, error)
	SetMobileVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) (*models.FundiProfile, error)
	CountByStatus(ctx context.Context, status models.ApprovalStatus) (int64, error)
}

// JobRepository defines operations for jobs
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Job, error)
	ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Job, error)
	ListOpen(ctx context.Context) ([]models.Job, error)
	// Assign sets the fundi only while the job is open and unassigned.
	Assign(ctx context.Context, jobID, fundiID uuid.UUID, at time.Time) (*models.Job, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, from []models.JobStatus, to models.JobStatus, at time.Time) (*models.Job, error)
	CountByStatus(ctx context.Context, status models.JobStatus) (int64, error)
}

// MessageRepository defines operations for the append-only message log
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
}

// RatingRepository defines operations for ratings
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Rating, error)
}

// RestrictionRepository defines operations for restrictions and appeals
type RestrictionRepository interface {
	Create(ctx context.Context, r *models.Restriction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restriction, error)
	ActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Restriction, error)
	ListActive(ctx context.Context) ([]models.Restriction, error)
	Lift(ctx context.Context, id uuid.UUID, at time.Time) (*models.Restriction, error)

	CreateAppeal(ctx context.Context, a *models.Appeal) error
	FindAppeal(ctx context.Context, id uuid.UUID) (*models.Appeal, error)
	ListPendingAppeals(ctx context.Context) ([]models.Appeal, error)
	ResolveAppeal(ctx context.Context, id uuid.UUID, status models.AppealStatus, response string, reviewer uuid.UUID, at time.Time) (*models.Appeal, error)
}

// CategoryRepository defines operations for job categories
type CategoryRepository interface {
	List(ctx context.Context) ([]models.JobCategory, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.JobCategory, error)
	Create(ctx context.Context, c *models.JobCategory) error
	Update(ctx context.Context, c *models.JobCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WalletRepository defines operations for the earnings ledger
type WalletRepository interface {
	Record(ctx context.Context, entry *models.WalletTransaction) error
	Sum(ctx context.Context, userID uuid.UUID, typ models.WalletTrxType) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error)
}

type TxFunc func(ctx context.Context, fn func(tx *Store) error) error

// Store bundles every repository. Transaction runs fn against a store bound
// to one database transaction; stores without TxFunc run fn directly.
type Store struct {
	Users        UserRepository
	Fundis       FundiRepository
	Jobs         JobRepository
	Messages     MessageRepository
	Ratings      RatingRepository
	Restrictions RestrictionRepository
	Categories   CategoryRepository
	Wallet       WalletRepository

	Tx     TxFunc
	Pinger func(ctx context.Context) error
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.Tx == nil {
		return fn(s)
	}
	return s.Tx(ctx, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.Pinger == nil {
		return nil
	}
	return s.Pinger(ctx)
}

// NewStore builds the gorm-backed store.
func NewStore(db *gorm.DB) *Store {
	s := &Store{
		Users:        NewUserRepository(db),
		Fundis:       NewFundiRepository(db),
		Jobs:         NewJobRepository(db),
		Messages:     NewMessageRepository(db),
		Ratings:      NewRatingRepository(db),
		Restrictions: NewRestrictionRepository(db),
		Categories:   NewCategoryRepository(db),
		Wallet:       NewWalletRepository(db),
	}
	s.Tx = func(ctx context.Context, fn func(tx *Store) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewStore(tx))
		})
	}
	s.Pinger = func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return s
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation catches duplicate keys when error translation is off.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlstate 23505") || strings.Contains(msg, "duplicate key value")
}
