package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"harmonia/api/internal/mail"
	"harmonia/api/internal/models"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/security"
)

const testSecret = "test-secret-test-secret-test-secret"

type memoryOutbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (o *memoryOutbox) Enqueue(ctx context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *memoryOutbox) messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.sent...)
}

type memorySecurityLog struct {
	mu      sync.Mutex
	entries []models.SecurityLogEntry
}

func (m *memorySecurityLog) Append(ctx context.Context, entry models.SecurityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memorySecurityLog) List(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SecurityLogEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memorySecurityLog) actions() []models.SecurityAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SecurityAction, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memoryObjects) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

type authFixture struct {
	auth   *AuthService
	users  *UserService
	store  *repository.MemoryUserStore
	tokens *security.TokenService
	hasher *security.PasswordHasher
	outbox *memoryOutbox
	audit  *memorySecurityLog
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	store := repository.NewMemoryUserStore()
	hasher := security.NewPasswordHasher(bcrypt.MinCost, 4)
	tokens, err := security.NewTokenService(testSecret, 0)
	require.NoError(t, err)

	outbox := &memoryOutbox{}
	auditStore := &memorySecurityLog{}
	audit := NewSecurityLogService(auditStore, zerolog.Nop())
	resets := NewResetTokenService(store, hasher, 0)

	return authFixture{
		auth:   NewAuthService(store, hasher, tokens, resets, outbox, audit, "https://app.test/", zerolog.Nop()),
		users:  NewUserService(store, audit, zerolog.Nop()),
		store:  store,
		tokens: tokens,
		hasher: hasher,
		outbox: outbox,
		audit:  auditStore,
	}
}
