// Package moderation owns restrictions and the appeal workflow.
package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

var (
	ErrNotRestricted       = errors.New("no active restriction")
	ErrAlreadyRestricted   = errors.New("user already restricted")
	ErrSelfRestrict        = errors.New("cannot restrict yourself")
	ErrEmptyReason         = errors.New("a reason is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrRestrictionNotFound = errors.New("restriction not found")
	ErrEmptyAppeal         = errors.New("appeal message is required")
	ErrAppealPending       = errors.New("an appeal is already pending for this restriction")
	ErrNotYourRestriction  = errors.New("restriction belongs to another user")
	ErrAppealNotFound      = errors.New("appeal not found")
	ErrAppealResolved      = errors.New("appeal already resolved")
)

type ModerationService struct {
	Store *repository.Store
	Pub   realtime.Publisher
	Now   func() time.Time
}

func NewModerationService(store *repository.Store, pub realtime.Publisher) *ModerationService {
	return &ModerationService{Store: store, Pub: pub, Now: time.Now}
}

func (ms *ModerationService) Restrict(ctx context.Context, adminID, userID uuid.UUID, reason string) (*models.Restriction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if adminID == userID {
		return nil, ErrSelfRestrict
	}
	if _, err := ms.Store.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := ms.Store.Restrictions.ActiveForUser(ctx, userID); err == nil {
		return nil, ErrAlreadyRestricted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	r := &models.Restriction{
		UserID:   userID,
		AdminID:  adminID,
		Reason:   reason,
		IsActive: true,
	}
	if err := ms.Store.Restrictions.Create(ctx, r); err != nil {
		return nil, err
	}

	slog.Info("user restricted", "user_id", userID, "admin_id", adminID, "restriction_id", r.ID)
	realtime.Emit(ctx, ms.Pub, models.TableRestrictions, realtime.EventInsert, r, nil)
	return r, nil
}

// Lift deactivates a restriction. The row is kept.
func (ms *ModerationService) Lift(ctx context.Context, adminID, restrictionID uuid.UUID) (*models.Restriction, error) {
	r, err := ms.lift(ctx, ms.Store, restrictionID)
	if err != nil {
		return nil, err
	}
	slog.Info("restriction lifted", "restriction_id", restrictionID, "admin_id", adminID)
	realtime.Emit(ctx, ms.Pub, models.TableRestrictions, realtime.EventUpdate, r, nil)
	return r, nil
}

func (ms *ModerationService) lift(ctx context.Context, store *repository.Store, id uuid.UUID) (*models.Restriction, error) {
	r, err := store.Restrictions.Lift(ctx, id, ms.Now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRestrictionNotFound
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrNotRestricted
	}
	return r, err
}

// Current returns the active restriction or nil.
func (ms *ModerationService) Current(ctx context.Context, userID uuid.UUID) (*models.Restriction, error) {
	r, err := ms.Store.Restrictions.ActiveForUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (ms *ModerationService) ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Restriction, error) {
	r, err := ms.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotRestricted
	}
	return r, nil
}

func (ms *ModerationService) ListActive(ctx context.Context) ([]models.Restriction, error) {
	return ms.Store.Restrictions.ListActive(ctx)
}

// SubmitAppeal files an appeal against the user's own active restriction.
// Only one appeal may be pending per restriction.
func (ms *ModerationService) SubmitAppeal(ctx context.Context, userID, restrictionID uuid.UUID, message string) (*models.Appeal, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyAppeal
	}

	r, err := ms.Store.Restrictions.FindByID(ctx, restrictionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRestrictionNotFound
		}
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrNotYourRestriction
	}
	if !r.IsActive {
		return nil, ErrNotRestricted
	}
	if r.HasPendingAppeal() {
		return nil, ErrAppealPending
	}

	a := &models.Appeal{
		RestrictionID: restrictionID,
		UserID:        userID,
		AppealMessage: message,
		Status:        models.AppealPending,
	}
	if err := ms.Store.Restrictions.CreateAppeal(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAppealPending
		}
		return nil, err
	}

	slog.Info("appeal submitted", "appeal_id", a.ID, "restriction_id", restrictionID)
	realtime.Emit(ctx, ms.Pub, models.TableAppeals, realtime.EventInsert, a, nil)
	return a, nil
}

// ResolveAppeal records the admin decision. Approval lifts the restriction
// in the same transaction.
func (ms *ModerationService) ResolveAppeal(ctx context.Context, adminID, appealID uuid.UUID, approve bool, response string) (*models.Appeal, error) {
	status := models.AppealRejected
	if approve {
		status = models.AppealApproved
	}

	var (
		appeal *models.Appeal
		lifted *models.Restriction
	)
	err := ms.Store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		appeal, err = tx.Restrictions.ResolveAppeal(ctx, appealID, status, strings.TrimSpace(response), adminID, ms.Now())
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrAppealNotFound
		case errors.Is(err, repository.ErrConflict):
			return ErrAppealResolved
		case err != nil:
			return err
		}
		if !approve {
			return nil
		}
		lifted, err = ms.lift(ctx, tx, appeal.RestrictionID)
		if errors.Is(err, ErrNotRestricted) {
			// already lifted by hand
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("appeal resolved", "appeal_id", appealID, "status", status, "admin_id", adminID)
	realtime.Emit(ctx, ms.Pub, models.TableAppeals, realtime.EventUpdate, appeal, nil)
	if lifted != nil {
		realtime.Emit(ctx, ms.Pub, models.TableRestrictions, realtime.EventUpdate, lifted, nil)
	}
	return appeal, nil
}

func (ms *ModerationService) ListPendingAppeals(ctx context.Context) ([]models.Appeal, error) {
	return ms.Store.Restrictions.ListPendingAppeals(ctx)
}
