package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category name already exists")
	ErrEmptyName        = errors.New("category name is required")
)

type CategoryInput struct {
	Name        string
	Description string
	Icon        string
}

type Service struct {
	Store *repository.Store
	Pub   realtime.Publisher
}

func NewService(store *repository.Store, pub realtime.Publisher) *Service {
	return &Service{Store: store, Pub: pub}
}

func (s *Service) List(ctx context.Context) ([]models.JobCategory, error) {
	return s.Store.Categories.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CategoryInput) (*models.JobCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c := &models.JobCategory{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Icon:        strings.TrimSpace(in.Icon),
	}
	if err := s.Store.Categories.Create(ctx, c); err != nil {
		return nil, mapErr(err)
	}
	realtime.Emit(ctx, s.Pub, models.TableCategories, realtime.EventInsert, c, nil)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.JobCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	old, err := s.Store.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	c := *old
	c.Name = name
	c.Description = strings.TrimSpace(in.Description)
	c.Icon = strings.TrimSpace(in.Icon)
	if err := s.Store.Categories.Update(ctx, &c); err != nil {
		return nil, mapErr(err)
	}
	realtime.Emit(ctx, s.Pub, models.TableCategories, realtime.EventUpdate, c, old)
	return &c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	old, err := s.Store.Categories.FindByID(ctx, id)
	if err != nil {
		return mapErr(err)
	}
	if err := s.Store.Categories.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	realtime.Emit(ctx, s.Pub, models.TableCategories, realtime.EventDelete, nil, old)
	return nil
}

// Seed fills an empty catalog with the default trades.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.Store.Categories.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, def := range models.DefaultCategories {
		c := def
		if err := s.Store.Categories.Create(ctx, &c); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	slog.Info("job categories seeded", "count", len(models.DefaultCategories))
	return nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrCategoryExists
	}
	return err
}
