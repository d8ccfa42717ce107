package stats

import (
	"context"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

// Platform is the public counter strip.
type Platform struct {
	ApprovedFundis int64 `json:"approved_fundis"`
	Users          int64 `json:"users"`
	CompletedJobs  int64 `json:"completed_jobs"`
}

// WatchedTables are the tables whose changes invalidate Platform.
var WatchedTables = []string{models.TableFundiProfiles, models.TableUsers, models.TableJobs}

type Service struct {
	Store *repository.Store
}

func NewService(store *repository.Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Platform(ctx context.Context) (*Platform, error) {
	fundis, err := s.Store.Fundis.CountByStatus(ctx, models.ApprovalApproved)
	if err != nil {
		return nil, err
	}
	users, err := s.Store.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := s.Store.Jobs.CountByStatus(ctx, models.JobCompleted)
	if err != nil {
		return nil, err
	}
	return &Platform{ApprovedFundis: fundis, Users: users, CompletedJobs: completed}, nil
}
