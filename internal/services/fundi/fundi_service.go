package fundi

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
	ErrAlreadyApplied  = errors.New("fundi profile already exists")
	ErrProfileNotFound = errors.New("fundi profile not found")
	ErrInvalidProfile  = errors.New("invalid fundi profile")
)

type ApplyInput struct {
	MobileNumber    string
	Location        string
	Skills          []string
	Bio             string
	ExperienceYears int
	HourlyRate      int64
}

// Stats is the fundi dashboard summary.
type Stats struct {
	ActiveJobs    int     `json:"active_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	MeanRating    float64 `json:"mean_rating"`
	RatingCount   int     `json:"rating_count"`
	Earnings      int64   `json:"earnings"`
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

// Apply creates a pending profile and grants the fundi role in one transaction.
func (s *Service) Apply(ctx context.Context, userID uuid.UUID, in ApplyInput) (*models.FundiProfile, error) {
	mobile := strings.TrimSpace(in.MobileNumber)
	if mobile == "" {
		return nil, fmt.Errorf("%w: mobile number is required", ErrInvalidProfile)
	}
	if in.ExperienceYears < 0 || in.HourlyRate < 0 {
		return nil, fmt.Errorf("%w: experience and rate cannot be negative", ErrInvalidProfile)
	}

	skills := []string{}
	seen := map[string]bool{}
	for _, sk := range in.Skills {
		for _, part := range models.SplitSkills(sk) {
			if k := strings.ToLower(part); !seen[k] {
				seen[k] = true
				skills = append(skills, part)
			}
		}
	}

	profile := &models.FundiProfile{
		UserID:          userID,
		MobileNumber:    mobile,
		Location:        strings.TrimSpace(in.Location),
		Skills:          skills,
		Bio:             strings.TrimSpace(in.Bio),
		ExperienceYears: in.ExperienceYears,
		HourlyRate:      in.HourlyRate,
		ApprovalStatus:  models.ApprovalPending,
	}

	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Fundis.Create(ctx, profile); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyApplied
			}
			return err
		}
		return tx.Users.GrantRole(ctx, userID, models.RoleFundi)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("fundi application received", "user_id", userID, "profile_id", profile.ID)
	realtime.Emit(ctx, s.Pub, models.TableFundiProfiles, realtime.EventInsert, profile, nil)
	realtime.Emit(ctx, s.Pub, models.TableUserRoles, realtime.EventInsert,
		map[string]interface{}{"user_id": userID, "role": models.RoleFundi}, nil)
	return profile, nil
}

func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.FundiProfile, error) {
	p, err := s.Store.Fundis.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// ListPending is the admin vetting queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]models.FundiProfile, error) {
	return s.Store.Fundis.ListByStatus(ctx, models.ApprovalPending)
}

func (s *Service) Approve(ctx context.Context, adminID, profileID uuid.UUID) (*models.FundiProfile, error) {
	return s.setStatus(ctx, adminID, profileID, models.ApprovalApproved)
}

func (s *Service) Reject(ctx context.Context, adminID, profileID uuid.UUID) (*models.FundiProfile, error) {
	return s.setStatus(ctx, adminID, profileID, models.ApprovalRejected)
}

func (s *Service) setStatus(ctx context.Context, adminID, profileID uuid.UUID, status models.ApprovalStatus) (*models.FundiProfile, error) {
	p, err := s.Store.Fundis.SetStatus(ctx, profileID, status, s.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	slog.Info("fundi vetted", "profile_id", profileID, "status", status, "admin_id", adminID)
	realtime.Emit(ctx, s.Pub, models.TableFundiProfiles, realtime.EventUpdate, p, nil)
	return p, nil
}

func (s *Service) VerifyMobile(ctx context.Context, profileID uuid.UUID, verified bool) (*models.FundiProfile, error) {
	p, err := s.Store.Fundis.SetMobileVerified(ctx, profileID, verified, s.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	realtime.Emit(ctx, s.Pub, models.TableFundiProfiles, realtime.EventUpdate, p, nil)
	return p, nil
}

// Recommended lists approved fundis with the skill; an empty skill lists all.
func (s *Service) Recommended(ctx context.Context, skill string) ([]models.FundiProfile, error) {
	list, err := s.Store.Fundis.ListByStatus(ctx, models.ApprovalApproved)
	if err != nil {
		return nil, err
	}
	out := []models.FundiProfile{}
	for i := range list {
		if list[i].HasSkill(skill) {
			out = append(out, list[i])
		}
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	jobs, err := s.Store.Jobs.ListByFundi(ctx, userID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.Store.Ratings.ListByFundi(ctx, userID)
	if err != nil {
		return nil, err
	}
	earnings, err := s.Wallet.Earnings(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		MeanRating:  models.MeanRating(ratings),
		RatingCount: len(ratings),
		Earnings:    earnings,
	}
	for _, j := range jobs {
		switch j.Status {
		case models.JobAccepted, models.JobInProgress:
			st.ActiveJobs++
		case models.JobCompleted:
			st.CompletedJobs++
		}
	}
	return st, nil
}
