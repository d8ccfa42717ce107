// Package auth handles sign-up, sign-in and the tokens that carry a session.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
	"github.com/Bla-nqo/fundiconnect-builder/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is not active")
	ErrRoleNotGranted     = errors.New("role not granted to this user")
	ErrUserNotFound       = errors.New("user not found")
)

// ExternalVerifier checks credentials against a hosted identity provider.
type ExternalVerifier interface {
	Verify(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
}

type Service struct {
	Store      *repository.Store
	Pub        realtime.Publisher
	Secret     string
	ExpiresMin int
	// Verifier is optional. When set, passwords are checked by the provider
	// and local rows only carry profile data.
	Verifier ExternalVerifier
}

func NewService(store *repository.Store, pub realtime.Publisher, secret string, expiresMin int) *Service {
	return &Service{Store: store, Pub: pub, Secret: secret, ExpiresMin: expiresMin}
}

// Register creates a client account. Admins are never created from here.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := strings.TrimSpace(in.Password)

	if _, err := s.Store.Users.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	if s.Verifier != nil {
		if err := s.Verifier.Register(ctx, email, password); err != nil {
			return nil, "", fmt.Errorf("identity provider signup: %w", err)
		}
		// the provider owns the secret; keep an unusable local hash
		password = randomSecret(24)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u := &models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    email,
		Password: hash,
		Role:     models.RoleClient,
		IsActive: true,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = &phone
	}

	if err := s.Store.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if u.Phone != nil {
				return nil, "", ErrPhoneTaken
			}
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	slog.Info("user registered", "user_id", u.ID)
	realtime.Emit(ctx, s.Pub, models.TableUsers, realtime.EventInsert, u, nil)

	token, err := s.IssueToken(ctx, u, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.Store.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.IsActive {
		return nil, "", ErrInactive
	}

	if s.Verifier != nil {
		if err := s.Verifier.Verify(ctx, email, password); err != nil {
			slog.Debug("identity provider rejected credentials", "error", err)
			return nil, "", ErrInvalidCredentials
		}
	} else if !utils.CheckPassword(u.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(ctx, u, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// UpsertOAuthUser finds or creates the account behind a verified provider email.
func (s *Service) UpsertOAuthUser(ctx context.Context, email, name, avatar string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	u, err := s.Store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		changed := false
		if name != "" && u.FullName != name {
			u.FullName = name
			changed = true
		}
		if avatar != "" && u.Avatar() != avatar {
			u.AvatarURL = &avatar
			changed = true
		}
		if changed {
			if err := s.Store.Users.Update(ctx, u); err != nil {
				return nil, err
			}
			realtime.Emit(ctx, s.Pub, models.TableUsers, realtime.EventUpdate, u, nil)
		}
		return u, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	// password is required; store a random one that is never used
	hash, err := utils.HashPassword(randomSecret(24))
	if err != nil {
		return nil, err
	}
	u = &models.User{
		FullName: name,
		Email:    email,
		Password: hash,
		Role:     models.RoleClient,
		IsActive: true,
	}
	if avatar != "" {
		u.AvatarURL = &avatar
	}
	if err := s.Store.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("user registered via oauth", "user_id", u.ID)
	realtime.Emit(ctx, s.Pub, models.TableUsers, realtime.EventInsert, u, nil)
	return u, nil
}

// IssueToken signs a token acting as role, embedding every granted role.
func (s *Service) IssueToken(ctx context.Context, u *models.User, role models.Role) (string, error) {
	roles, err := s.Store.Users.Roles(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if !containsRole(roles, role) {
		return "", ErrRoleNotGranted
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return utils.SignJWT(s.Secret, u.ID.String(), string(role), names, s.ExpiresMin)
}

// SwitchRole reissues the token acting as another granted role.
func (s *Service) SwitchRole(ctx context.Context, userID uuid.UUID, role models.Role) (string, error) {
	u, err := s.Store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return s.IssueToken(ctx, u, role)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, []models.Role, error) {
	u, err := s.Store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	roles, err := s.Store.Users.Roles(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, roles, nil
}

// HasRole answers the role-check query from the database.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role models.Role) (bool, error) {
	roles, err := s.Store.Users.Roles(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return containsRole(roles, role), nil
}

// GrantAdmins gives the admin role to each listed account that exists.
// Unknown emails are skipped so the list can name accounts not yet registered.
func (s *Service) GrantAdmins(ctx context.Context, emails []string) (int, error) {
	granted := 0
	for _, email := range emails {
		u, err := s.Store.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("admin email not registered yet", "email", email)
			continue
		}
		if err != nil {
			return granted, err
		}
		if err := s.Store.Users.GrantRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return granted, err
		}
		granted++
	}
	return granted, nil
}

func containsRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func randomSecret(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
