package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, j *models.Job) error {
	return translate(r.db.WithContext(ctx).Omit("Client", "Fundi").Create(j).Error)
}

func (r *jobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var j models.Job
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Fundi").
		First(&j, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (r *jobRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Job, error) {
	var out []models.Job
	err := r.db.WithContext(ctx).
		Preload("Fundi").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

func (r *jobRepository) ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Job, error) {
	var out []models.Job
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("fundi_id = ?", fundiID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

// ListOpen returns opportunities: open and unassigned, newest first.
func (r *jobRepository) ListOpen(ctx context.Context) ([]models.Job, error) {
	var out []models.Job
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND fundi_id IS NULL", models.JobOpen).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

func (r *jobRepository) Assign(ctx context.Context, jobID, fundiID uuid.UUID, at time.Time) (*models.Job, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ? AND fundi_id IS NULL", jobID, models.JobOpen).
		Updates(map[string]interface{}{
			"fundi_id":   fundiID,
			"status":     models.JobAccepted,
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.missOrConflict(ctx, jobID)
	}
	return r.FindByID(ctx, jobID)
}

func (r *jobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, from []models.JobStatus, to models.JobStatus, at time.Time) (*models.Job, error) {
	changes := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case models.JobInProgress:
		changes["start_date"] = gorm.Expr("COALESCE(start_date, ?)", at)
	case models.JobCompleted:
		changes["end_date"] = gorm.Expr("COALESCE(end_date, ?)", at)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN ?", jobID, from).
		Updates(changes)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, r.missOrConflict(ctx, jobID)
	}
	return r.FindByID(ctx, jobID)
}

func (r *jobRepository) missOrConflict(ctx context.Context, jobID uuid.UUID) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", jobID).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *jobRepository) CountByStatus(ctx context.Context, status models.JobStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, translate(err)
}
