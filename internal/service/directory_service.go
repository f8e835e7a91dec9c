package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/user-directory/internal/auth"
	"github.com/spec-kit/user-directory/internal/domain"
	"github.com/spec-kit/user-directory/internal/repository"
	apperrors "github.com/spec-kit/user-directory/pkg/util"
)

// DirectoryService exposes the CRUD surface over user records. Every
// operation returns a structured DomainError on failure; nothing is
// thrown across the boundary.
type DirectoryService struct {
	users   repository.UserRepository
	revoked *auth.RevocationList
}

// DirectoryDependencies encapsulates requirements for the directory service.
type DirectoryDependencies struct {
	UserRepo       repository.UserRepository
	RevocationList *auth.RevocationList
}

// NewDirectoryService builds the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{users: deps.UserRepo, revoked: deps.RevocationList}
}

// GetSelf returns the caller's own summary projection. The id comes from
// the session verifier; NotFound covers the race where the record vanished
// between verification and this read.
func (s *DirectoryService) GetSelf(ctx context.Context, id string) (*domain.Summary, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewStoreError(err)
	}
	summary := user.Summary()
	return &summary, nil
}

// ListAll returns every record projected to its directory profile.
// Secrets and challenge fields never cross this boundary.
func (s *DirectoryService) ListAll(ctx context.Context) ([]domain.Profile, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	profiles := make([]domain.Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Profile())
	}
	return profiles, nil
}

// UpdateUserName renames a record. Uniqueness collisions surface from the
// store as Conflict; there is no pre-check, so concurrent renames racing
// on the same name are serialized by the unique index.
func (s *DirectoryService) UpdateUserName(ctx context.Context, id, userName string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return apperrors.NewValidationError("user name is required", nil)
	}

	err := s.users.UpdateUserName(ctx, id, userName)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("user name already taken", map[string]any{"userName": userName})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	default:
		return apperrors.NewStoreError(err)
	}
}

// DeleteByID permanently removes a record. Deletion is hard: once gone,
// the id no longer resolves for the verifier or any directory call.
func (s *DirectoryService) DeleteByID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}

	err := s.users.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	default:
		return apperrors.NewStoreError(err)
	}
}

// Logout revokes the presented token until its natural expiry. Best effort
// when no revocation backend is configured: the client clears its own
// belief regardless.
func (s *DirectoryService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.Claims == nil || principal.Claims.ExpiresAt == nil {
		return apperrors.NewUnauthorized("no session")
	}
	err := s.revoked.Revoke(ctx, principal.TokenID, principal.Claims.ExpiresAt.Time)
	if err != nil && !errors.Is(err, auth.ErrRevocationUnavailable) {
		return apperrors.NewStoreError(err)
	}
	return nil
}
