// Package jobs runs the job board: posting, the fundi opportunity list,
// assignment and the status lifecycle.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/wallet"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobUnavailable    = errors.New("job is no longer available")
	ErrNotApproved       = errors.New("fundi profile is not approved")
	ErrNotJobOwner       = errors.New("only the client who posted the job can do this")
	ErrNotAssigned       = errors.New("job is not assigned to you")
	ErrOwnJob            = errors.New("cannot apply to your own job")
	ErrInvalidTransition = errors.New("job cannot move to that status")
	ErrInvalidJob        = errors.New("invalid job")
)

type CreateInput struct {
	Title       string
	Description string
	Location    string
	Budget      int64
	Skills      []string
	CategoryID  *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
}

// View is a job as a dashboard shows it.
type View struct {
	models.Job
	Progress  int               `json:"progress"`
	FundiName string            `json:"fundi_name"`
	Actions   models.JobActions `json:"actions"`
}

type Service struct {
	Store  *repository.Store
	Wallet *wallet.WalletService
	Pub    realtime.Publisher
	Now    func() time.Time
}

func NewService(store *repository.Store, w *wallet.WalletService, pub realtime.Publisher) *Service {
	return &Service{Store: store, Wallet: w, Pub: pub, Now: time.Now}
}

func (s *Service) view(j models.Job) View {
	return View{
		Job:       j,
		Progress:  j.Progress(s.Now()),
		FundiName: j.FundiName(),
		Actions:   j.Actions(),
	}
}

func (s *Service) views(list []models.Job) []View {
	out := make([]View, 0, len(list))
	for _, j := range list {
		out = append(out, s.view(j))
	}
	return out
}

func (s *Service) Create(ctx context.Context, clientID uuid.UUID, in CreateInput) (*models.Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidJob)
	}
	if in.Budget <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrInvalidJob)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidJob)
	}
	if in.CategoryID != nil {
		if _, err := s.Store.Categories.FindByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown category", ErrInvalidJob)
			}
			return nil, err
		}
	}

	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	job := &models.Job{
		ClientID:    clientID,
		CategoryID:  in.CategoryID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Budget:      in.Budget,
		Skills:      skills,
		Status:      models.JobOpen,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if err := s.Store.Jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	slog.Info("job posted", "job_id", job.ID, "client_id", clientID)
	realtime.Emit(ctx, s.Pub, models.TableJobs, realtime.EventInsert, job, nil)
	return job, nil
}

// ListForClient is the client's "Your Jobs" list, newest first.
func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID) ([]View, error) {
	list, err := s.Store.Jobs.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

// ListOpportunities returns open, unassigned jobs. Only approved fundis see them.
func (s *Service) ListOpportunities(ctx context.Context, fundiUserID uuid.UUID) ([]View, error) {
	if err := s.requireApproved(ctx, fundiUserID); err != nil {
		return nil, err
	}
	list, err := s.Store.Jobs.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, j := range list {
		if j.ClientID != fundiUserID {
			out = append(out, j)
		}
	}
	return s.views(out), nil
}

func (s *Service) ListAssigned(ctx context.Context, fundiUserID uuid.UUID) ([]View, error) {
	list, err := s.Store.Jobs.ListByFundi(ctx, fundiUserID)
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

// Get returns a job the viewer may see: its client, its fundi, an admin,
// or anyone while it is still open.
func (s *Service) Get(ctx context.Context, viewer uuid.UUID, admin bool, id uuid.UUID) (*View, error) {
	j, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && j.ClientID != viewer && !j.AssignedTo(viewer) && j.Status != models.JobOpen {
		return nil, ErrJobNotFound
	}
	v := s.view(*j)
	return &v, nil
}

// Apply assigns the job to the fundi. Only the first applicant wins.
func (s *Service) Apply(ctx context.Context, fundiUserID, jobID uuid.UUID) (*models.Job, error) {
	if err := s.requireApproved(ctx, fundiUserID); err != nil {
		return nil, err
	}
	j, err := s.find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ClientID == fundiUserID {
		return nil, ErrOwnJob
	}

	updated, err := s.Store.Jobs.Assign(ctx, jobID, fundiUserID, s.Now())
	if err != nil {
		return nil, mapErr(err, ErrJobUnavailable)
	}

	slog.Info("job assigned", "job_id", jobID, "fundi_id", fundiUserID)
	realtime.Emit(ctx, s.Pub, models.TableJobs, realtime.EventUpdate, updated, j)
	return updated, nil
}

// Start moves an accepted job into progress. Only the assigned fundi may.
func (s *Service) Start(ctx context.Context, fundiUserID, jobID uuid.UUID) (*models.Job, error) {
	j, err := s.find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.AssignedTo(fundiUserID) {
		return nil, ErrNotAssigned
	}
	updated, err := s.Store.Jobs.UpdateStatus(ctx, jobID, []models.JobStatus{models.JobAccepted}, models.JobInProgress, s.Now())
	if err != nil {
		return nil, mapErr(err, ErrInvalidTransition)
	}
	realtime.Emit(ctx, s.Pub, models.TableJobs, realtime.EventUpdate, updated, j)
	return updated, nil
}

// Complete closes the job and credits the budget to the fundi in one transaction.
func (s *Service) Complete(ctx context.Context, clientID, jobID uuid.UUID) (*models.Job, error) {
	j, err := s.find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ClientID != clientID {
		return nil, ErrNotJobOwner
	}
	if !j.Assigned() {
		return nil, ErrInvalidTransition
	}

	var (
		updated *models.Job
		credit  *models.WalletTransaction
	)
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		updated, err = tx.Jobs.UpdateStatus(ctx, jobID,
			[]models.JobStatus{models.JobAccepted, models.JobInProgress}, models.JobCompleted, s.Now())
		if err != nil {
			return mapErr(err, ErrInvalidTransition)
		}
		credit, _, err = s.Wallet.CreditFundi(ctx, tx, *j.FundiID, j.Budget, j.ID, "Earnings for "+j.Title)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("job completed", "job_id", jobID, "fundi_id", *j.FundiID)
	realtime.Emit(ctx, s.Pub, models.TableJobs, realtime.EventUpdate, updated, j)
	if credit != nil {
		realtime.Emit(ctx, s.Pub, models.TableWallet, realtime.EventInsert, credit, nil)
	}
	return updated, nil
}

// Cancel withdraws a job that has not started.
func (s *Service) Cancel(ctx context.Context, clientID, jobID uuid.UUID) (*models.Job, error) {
	j, err := s.find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.ClientID != clientID {
		return nil, ErrNotJobOwner
	}
	updated, err := s.Store.Jobs.UpdateStatus(ctx, jobID,
		[]models.JobStatus{models.JobOpen, models.JobAccepted}, models.JobCancelled, s.Now())
	if err != nil {
		return nil, mapErr(err, ErrInvalidTransition)
	}
	realtime.Emit(ctx, s.Pub, models.TableJobs, realtime.EventUpdate, updated, j)
	return updated, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j, err := s.Store.Jobs.FindByID(ctx, id)
	if err != nil {
		return nil, mapErr(err, err)
	}
	return j, nil
}

func (s *Service) requireApproved(ctx context.Context, userID uuid.UUID) error {
	p, err := s.Store.Fundis.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotApproved
		}
		return err
	}
	if !p.Approved() {
		return ErrNotApproved
	}
	return nil
}

func mapErr(err, conflict error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrJobNotFound
	case errors.Is(err, repository.ErrConflict):
		return conflict
	}
	return err
}
