package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"harmonia/api/internal/models"
)

// MemoryUserStore is an in-process credential store with the same uniqueness and
// compare-and-clear guarantees as the Postgres repository. Service and handler
// tests run against it.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

func (s *MemoryUserStore) conflicts(candidate models.User) bool {
	for id, u := range s.users {
		if id == candidate.ID {
			continue
		}
		if strings.EqualFold(u.Email, candidate.Email) {
			return true
		}
		if u.Username != nil && candidate.Username != nil && *u.Username == *candidate.Username {
			return true
		}
	}
	return false
}

func (s *MemoryUserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists || s.conflicts(user) {
		return models.User{}, ErrDuplicateKey
	}
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (s *MemoryUserStore) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email := strings.ToLower(identifier)
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	for _, u := range s.users {
		if u.Username != nil && *u.Username == identifier {
			return cloneUser(u), nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) Save(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if s.conflicts(user) {
		return ErrDuplicateKey
	}
	current.FullName = user.FullName
	current.Username = user.Username
	current.Email = user.Email
	current.PasswordHash = user.PasswordHash
	current.Role = user.Role
	current.Provider = user.Provider
	current.UpdatedAt = s.now().UTC()
	s.users[user.ID] = cloneUser(current)
	return nil
}

func (s *MemoryUserStore) SetResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
	u.UpdatedAt = s.now().UTC()
	s.users[userID] = u
	return nil
}

func (s *MemoryUserStore) RedeemResetToken(ctx context.Context, tokenHash string, passwordHash string, now time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.ResetTokenHash == nil || *u.ResetTokenHash != tokenHash {
			continue
		}
		if u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(now) {
			return models.User{}, ErrInvalidOrExpiredToken
		}
		u.PasswordHash = &passwordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiresAt = nil
		u.UpdatedAt = s.now().UTC()
		s.users[id] = u
		return cloneUser(u), nil
	}
	return models.User{}, ErrInvalidOrExpiredToken
}

func (s *MemoryUserStore) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for id, u := range s.users {
		if u.ResetTokenExpiresAt != nil && !u.ResetTokenExpiresAt.After(now) {
			u.ResetTokenHash = nil
			u.ResetTokenExpiresAt = nil
			s.users[id] = u
			cleared++
		}
	}
	return cleared, nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func cloneUser(u models.User) models.User {
	out := u
	out.Username = clonePtr(u.Username)
	out.PasswordHash = clonePtr(u.PasswordHash)
	out.ResetTokenHash = clonePtr(u.ResetTokenHash)
	out.ResetTokenExpiresAt = clonePtr(u.ResetTokenExpiresAt)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
