package service

import (
	"context"
	"fmt"
	"time"

	"harmonia/api/internal/models"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/security"
)

const DefaultResetTokenTTL = time.Hour

// ResetTokenService issues single-use password reset tokens. Only the SHA-256 of a
// token is stored; the plaintext leaves the process once, by mail.
type ResetTokenService struct {
	users  UserStore
	hasher *security.PasswordHasher
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokenService(users UserStore, hasher *security.PasswordHasher, ttl time.Duration) *ResetTokenService {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenService{users: users, hasher: hasher, ttl: ttl, now: time.Now}
}

// Issue replaces any outstanding token for the user.
func (s *ResetTokenService) Issue(ctx context.Context, userID string) (string, error) {
	token, digest, err := security.GenerateResetToken()
	if err != nil {
		return "", err
	}
	if err := s.users.SetResetToken(ctx, userID, digest, s.now().Add(s.ttl)); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Redeem sets newPassword on the account holding token. The new hash is computed
// before the store is touched, so a failure leaves the token redeemable.
func (s *ResetTokenService) Redeem(ctx context.Context, token string, newPassword string) (models.User, error) {
	if token == "" {
		return models.User{}, repository.ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return models.User{}, err
	}
	return s.users.RedeemResetToken(ctx, security.HashResetToken(token), hash, s.now())
}
