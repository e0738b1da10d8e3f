package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"harmonia/api/internal/ids"
	"harmonia/api/internal/mail"
	"harmonia/api/internal/models"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/security"
	"harmonia/api/internal/validation"
)

type AuthService struct {
	users       UserStore
	hasher      *security.PasswordHasher
	tokens      *security.TokenService
	resets      *ResetTokenService
	outbox      MailOutbox
	audit       *SecurityLogService
	frontendURL string
	log         zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users UserStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenService,
	resets *ResetTokenService,
	outbox MailOutbox,
	audit *SecurityLogService,
	frontendURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		resets:      resets,
		outbox:      outbox,
		audit:       audit,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		log:         log,
	}
}

type SignupInput struct {
	FullName  string
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

type AuthResult struct {
	Token string
	User  models.User
}

// Signup always creates a local account with the user role.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if username != "" {
		if problem := validation.UsernameProblem(username); problem != "" {
			fields["username"] = problem
		}
	}
	if problem := validation.PasswordProblem(input.Password); problem != "" {
		fields["password"] = problem
	}
	if len(fields) > 0 {
		return AuthResult{}, &ValidationError{Fields: fields}
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		FullName:     displayName(input, username),
		Email:        email,
		PasswordHash: &hash,
		Role:         models.UserRoleUser,
		Provider:     models.AuthProviderLocal,
	}
	if username != "" {
		user.Username = &username
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit.Record(ctx, models.SecurityActionSignup, created.ID, "signup", email)
	s.log.Info().Str("user_id", created.ID).Msg("account created")
	return AuthResult{Token: token, User: created}, nil
}

func displayName(input SignupInput, username string) string {
	if name := strings.TrimSpace(input.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName)); name != "" {
		return name
	}
	return username
}

// Login reports ErrInvalidCredentials for an unknown identifier and for a wrong
// password alike. An unknown identifier still pays for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, identifier string, password string) (AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return AuthResult{}, invalid("identifier", "is required")
	}
	if password == "" {
		return AuthResult{}, invalid("password", "is required")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	if err != nil || !user.HasPassword() {
		if _, verr := s.hasher.Verify(ctx, password, s.placeholderHash()); verr != nil {
			return AuthResult{}, verr
		}
		s.loginFailed(ctx, identifier, "unknown identifier")
		return AuthResult{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, *user.PasswordHash)
	if err != nil {
		return AuthResult{}, err
	}
	if !ok {
		s.loginFailed(ctx, identifier, "wrong password")
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit.Record(ctx, models.SecurityActionLoginSuccess, user.ID, "login", "")
	return AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, identifier, reason string) {
	s.log.Warn().Str("identifier", identifier).Str("reason", reason).Msg("login failed")
	s.audit.Record(ctx, models.SecurityActionLoginFailure, identifier, "login", reason)
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.Background(), ids.New())
		if err != nil {
			s.log.Error().Err(err).Msg("placeholder hash failed")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ForgotPassword answers the same way whether or not the identifier matches an
// account. When it does, a reset link is queued for delivery.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return invalid("identifier", "is required")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Debug().Str("identifier", identifier).Msg("password reset for unknown identifier")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.resets.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.outbox.Enqueue(ctx, mail.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body:    s.resetMailBody(token),
	}); err != nil {
		return fmt.Errorf("queue reset mail: %w", err)
	}

	s.audit.Record(ctx, models.SecurityActionPasswordResetRequested, user.ID, "forgot-password", "")
	return nil
}

func (s *AuthService) resetMailBody(token string) string {
	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	return "You requested a password reset.\n\n" +
		"Open the link below within the next hour to choose a new password:\n" +
		link + "\n\n" +
		"If you did not request this, ignore this message."
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	fields := map[string]string{}
	if strings.TrimSpace(token) == "" {
		fields["token"] = "is required"
	}
	if problem := validation.PasswordProblem(newPassword); problem != "" {
		fields["newPassword"] = problem
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	user, err := s.resets.Redeem(ctx, strings.TrimSpace(token), newPassword)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.SecurityActionPasswordReset, user.ID, "reset-password", "")
	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
