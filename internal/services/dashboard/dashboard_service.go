// Package dashboard picks which surface a session lands on and loads its data.
package dashboard

import (
	"context"
	"errors"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/fundi"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/jobs"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/moderation"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/stats"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
)

type Surface string

const (
	SurfaceAppeal Surface = "appeal"
	SurfaceClient Surface = "client"
	SurfaceFundi  Surface = "fundi"
	SurfaceAdmin  Surface = "admin"
)

type Dashboard struct {
	Surface Surface `json:"surface"`

	// appeal
	Restriction *models.Restriction `json:"restriction,omitempty"`
	CanAppeal   bool                `json:"can_appeal,omitempty"`

	// client
	Jobs        []jobs.View           `json:"jobs,omitempty"`
	Recommended []models.FundiProfile `json:"recommended,omitempty"`

	// fundi
	Profile       *models.FundiProfile `json:"profile,omitempty"`
	ActiveJobs    []jobs.View          `json:"active_jobs,omitempty"`
	Opportunities []jobs.View          `json:"opportunities,omitempty"`
	Stats         *fundi.Stats         `json:"stats,omitempty"`

	// admin
	PendingFundis      []models.FundiProfile `json:"pending_fundis,omitempty"`
	PendingAppeals     []models.Appeal       `json:"pending_appeals,omitempty"`
	ActiveRestrictions []models.Restriction  `json:"active_restrictions,omitempty"`
	Platform           *stats.Platform       `json:"platform,omitempty"`
}

type Service struct {
	Jobs       *jobs.Service
	Fundis     *fundi.Service
	Moderation *moderation.ModerationService
	Stats      *stats.Service
}

func NewService(j *jobs.Service, f *fundi.Service, m *moderation.ModerationService, st *stats.Service) *Service {
	return &Service{Jobs: j, Fundis: f, Moderation: m, Stats: st}
}

// Resolve returns the appeal surface for a restricted non-admin, otherwise
// the surface of the session's active role.
func (s *Service) Resolve(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	if sess.Restricted() && !sess.IsAdmin() {
		return &Dashboard{
			Surface:     SurfaceAppeal,
			Restriction: sess.Restriction,
			CanAppeal:   !sess.Restriction.HasPendingAppeal(),
		}, nil
	}

	switch sess.Role {
	case models.RoleAdmin:
		return s.admin(ctx)
	case models.RoleFundi:
		return s.fundi(ctx, sess)
	default:
		return s.client(ctx, sess)
	}
}

func (s *Service) client(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	list, err := s.Jobs.ListForClient(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	rec, err := s.Fundis.Recommended(ctx, "")
	if err != nil {
		return nil, err
	}
	return &Dashboard{Surface: SurfaceClient, Jobs: list, Recommended: rec}, nil
}

func (s *Service) fundi(ctx context.Context, sess *session.Session) (*Dashboard, error) {
	d := &Dashboard{Surface: SurfaceFundi}

	profile, err := s.Fundis.Profile(ctx, sess.UserID)
	if err != nil && !errors.Is(err, fundi.ErrProfileNotFound) {
		return nil, err
	}
	d.Profile = profile

	if d.ActiveJobs, err = s.Jobs.ListAssigned(ctx, sess.UserID); err != nil {
		return nil, err
	}
	// unapproved fundis get an empty board, not an error
	d.Opportunities, err = s.Jobs.ListOpportunities(ctx, sess.UserID)
	if err != nil && !errors.Is(err, jobs.ErrNotApproved) {
		return nil, err
	}
	if d.Stats, err = s.Fundis.Stats(ctx, sess.UserID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) admin(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{Surface: SurfaceAdmin}
	var err error
	if d.PendingFundis, err = s.Fundis.ListPending(ctx); err != nil {
		return nil, err
	}
	if d.PendingAppeals, err = s.Moderation.ListPendingAppeals(ctx); err != nil {
		return nil, err
	}
	if d.ActiveRestrictions, err = s.Moderation.ListActive(ctx); err != nil {
		return nil, err
	}
	if d.Platform, err = s.Stats.Platform(ctx); err != nil {
		return nil, err
	}
	return d, nil
}
