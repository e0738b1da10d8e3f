package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"harmonia/api/internal/models"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/validation"
)

type UserService struct {
	users UserStore
	audit *SecurityLogService
	log   zerolog.Logger
}

func NewUserService(users UserStore, audit *SecurityLogService, log zerolog.Logger) *UserService {
	return &UserService{users: users, audit: audit, log: log}
}

func (s *UserService) Profile(ctx context.Context, userID string) (models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ProfileInput holds optional replacements; nil fields are left unchanged.
type ProfileInput struct {
	FullName *string
	Username *string
	Email    *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return models.User{}, invalid("email", "is required")
		}
		user.Email = email
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			user.Username = nil
		} else {
			if problem := validation.UsernameProblem(username); problem != "" {
				return models.User{}, invalid("username", problem)
			}
			user.Username = &username
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) Delete(ctx context.Context, actorID string, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, models.SecurityActionUserDeleted, actorID, "users", userID)
	return nil
}

// ChangeRole takes the role as free text and rejects anything outside the closed set.
func (s *UserService) ChangeRole(ctx context.Context, actorID string, userID string, role string) (models.User, error) {
	parsed, err := models.ParseUserRole(strings.TrimSpace(role))
	if err != nil {
		return models.User{}, invalid("role", "must be one of: user, admin")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	previous := user.Role
	if previous == parsed {
		return user, nil
	}

	user.Role = parsed
	if err := s.users.Save(ctx, user); err != nil {
		return models.User{}, err
	}

	s.audit.Record(ctx, models.SecurityActionRoleChange, actorID, "users", userID+": "+string(previous)+" -> "+string(parsed))
	s.log.Info().
		Str("user_id", userID).
		Str("actor_id", actorID).
		Str("role", string(parsed)).
		Msg("role changed")
	return user, nil
}

// EnsureAdmin promotes the account matching identifier. A missing account is
// logged and skipped so a fresh deployment can still boot.
func (s *UserService) EnsureAdmin(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Warn().Str("identifier", identifier).Msg("bootstrap admin account not found")
		return nil
	}
	if err != nil {
		return err
	}
	if user.Role == models.UserRoleAdmin {
		return nil
	}

	_, err = s.ChangeRole(ctx, "bootstrap", user.ID, string(models.UserRoleAdmin))
	return err
}
