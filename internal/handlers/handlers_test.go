package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"harmonia/api/internal/mail"
	"harmonia/api/internal/middleware"
	"harmonia/api/internal/models"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/security"
	"harmonia/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Enqueue(ctx context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

type securityLogs struct {
	mu      sync.Mutex
	entries []models.SecurityLogEntry
}

func (s *securityLogs) Append(ctx context.Context, e models.SecurityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *securityLogs) List(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SecurityLogEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

type feedbackStore struct {
	mu    sync.Mutex
	items []models.Feedback
}

func (f *feedbackStore) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fb.InstrumentID == "missing" {
		return models.Feedback{}, repository.ErrInstrumentNotFound
	}
	f.items = append(f.items, fb)
	return fb, nil
}

func (f *feedbackStore) List(ctx context.Context) ([]models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Feedback(nil), f.items...), nil
}

func (f *feedbackStore) SetAdminResponse(ctx context.Context, id, response string) (models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].AdminResponse = response
			return f.items[i], nil
		}
	}
	return models.Feedback{}, repository.ErrFeedbackNotFound
}

type testApp struct {
	router http.Handler
	store  *repository.MemoryUserStore
	tokens *security.TokenService
	outbox *outbox
}

func newTestApp(t *testing.T, limiter *middleware.RedisLimiter) testApp {
	t.Helper()
	log := zerolog.Nop()

	store := repository.NewMemoryUserStore()
	hasher := security.NewPasswordHasher(bcrypt.MinCost, 4)
	tokens, err := security.NewTokenService("handler-test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)
	mails := &outbox{}

	audit := service.NewSecurityLogService(&securityLogs{}, log)
	resets := service.NewResetTokenService(store, hasher, time.Hour)

	hs := NewHandlerSet(log, "test", Services{
		Auth:         service.NewAuthService(store, hasher, tokens, resets, mails, audit, "https://app.test", log),
		Users:        service.NewUserService(store, audit, log),
		Catalog:      service.NewCatalogService(nil, nil, service.NewMediaService(nil, log), log),
		Feedback:     service.NewFeedbackService(&feedbackStore{}),
		SecurityLogs: audit,
		Tokens:       tokens,
		LoginLimiter: limiter,
		HealthChecks: map[string]func(context.Context) error{
			"database": func(context.Context) error { return nil },
		},
	})

	engine := gin.New()
	hs.Register(engine)
	return testApp{router: engine, store: store, tokens: tokens, outbox: mails}
}

func (a testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a testApp) signup(t *testing.T, email, username string) (string, string) {
	t.Helper()
	rec := a.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "Str0ng!pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	user := body["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func (a testApp) promote(t *testing.T, id string) string {
	t.Helper()
	ctx := context.Background()
	user, err := a.store.GetByID(ctx, id)
	require.NoError(t, err)
	user.Role = models.UserRoleAdmin
	require.NoError(t, a.store.Save(ctx, user))
	tok, err := a.tokens.Issue(id, models.UserRoleAdmin)
	require.NoError(t, err)
	return tok
}

func TestRoot(t *testing.T) {
	app := newTestApp(t, nil)
	rec := app.request(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Server is running"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)
	rec := app.request(t, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSignupScenario(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "a@x.com",
		"username": "alice",
		"password": "Str0ng!pw",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	identity, err := app.tokens.Verify(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], identity.UserID)
	assert.Equal(t, models.UserRoleUser, identity.Role)
}

func TestSignupErrors(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "alice")

	rec := app.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "a@x.com",
		"username": "alice2",
		"password": "Str0ng!pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_key", decode(t, rec)["error"])

	rec = app.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"password": "weak",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestSignupRejectsEmailAsUsername(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "alice")

	rec := app.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "m@evil.com",
		"username": "a@x.com",
		"password": "Str0ng!pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Equal(t, "must not contain @", body["fields"].(map[string]any)["username"])
}

func TestLoginScenario(t *testing.T) {
	app := newTestApp(t, nil)
	_, id := app.signup(t, "a@x.com", "alice")

	rec := app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "Wr0ng!pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "invalid_credentials", body["error"])
	assert.NotContains(t, body, "token")

	rec = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "nobody",
		"password":   "Wr0ng!pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_credentials", decode(t, rec)["error"])

	rec = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "a@x.com",
		"password":   "Str0ng!pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	identity, err := app.tokens.Verify(decode(t, rec)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, id, identity.UserID)
}

func TestLoginRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := newTestApp(t, middleware.NewRedisLimiter(client, "login", 2, 15*time.Minute))
	creds := map[string]string{"identifier": "alice", "password": "Wr0ng!pw"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusBadRequest, app.request(t, http.MethodPost, "/api/auth/login", "", creds).Code)
	}
	rec := app.request(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode(t, rec)["error"])
}

func TestForgotAndResetPassword(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "alice")

	unknown := app.request(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"identifier": "ghost"})
	known := app.request(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String())

	require.Len(t, app.outbox.msgs, 1)
	body := app.outbox.msgs[0].Body
	token := body[strings.Index(body, "token=")+len("token="):]
	token = token[:strings.IndexByte(token, '\n')]

	rec := app.request(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":       token,
		"newPassword": "N3w!passw0rd",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":       token,
		"newPassword": "N3w!passw0rd",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_or_expired_token", decode(t, rec)["error"])

	rec = app.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "N3w!passw0rd",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessControl(t *testing.T) {
	app := newTestApp(t, nil)
	userTok, _ := app.signup(t, "a@x.com", "alice")
	_, bobID := app.signup(t, "b@x.com", "bob")
	adminTok := app.promote(t, bobID)

	rec := app.request(t, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", decode(t, rec)["error"])

	rec = app.request(t, http.MethodGet, "/api/users/profile", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_token", decode(t, rec)["error"])

	rec = app.request(t, http.MethodGet, "/api/users/profile", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode(t, rec)["user"].(map[string]any)["email"])

	assert.Equal(t, http.StatusOK, app.request(t, http.MethodGet, "/api/dashboard", userTok, nil).Code)
	assert.Equal(t, http.StatusForbidden, app.request(t, http.MethodGet, "/api/admin", userTok, nil).Code)
	assert.Equal(t, http.StatusOK, app.request(t, http.MethodGet, "/api/admin", adminTok, nil).Code)

	assert.Equal(t, http.StatusForbidden, app.request(t, http.MethodGet, "/api/users", userTok, nil).Code)
	rec = app.request(t, http.MethodGet, "/api/users", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["users"], 2)
}

func TestProfileAndRoleManagement(t *testing.T) {
	app := newTestApp(t, nil)
	userTok, aliceID := app.signup(t, "a@x.com", "alice")
	_, bobID := app.signup(t, "b@x.com", "bob")
	adminTok := app.promote(t, bobID)

	rec := app.request(t, http.MethodPut, "/api/users/profile", userTok, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_key", decode(t, rec)["error"])

	for _, username := range []string{"b@x.com", "al"} {
		rec = app.request(t, http.MethodPut, "/api/users/profile", userTok, map[string]string{"username": username})
		assert.Equal(t, http.StatusBadRequest, rec.Code, username)
		body := decode(t, rec)
		assert.Equal(t, "validation_error", body["error"])
		assert.Contains(t, body["fields"], "username")
	}

	rec = app.request(t, http.MethodPut, "/api/users/profile", userTok, map[string]string{"fullName": "Alice L"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice L", decode(t, rec)["user"].(map[string]any)["fullName"])

	rec = app.request(t, http.MethodPut, "/api/users/"+aliceID+"/role", adminTok, map[string]string{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec)["error"])

	rec = app.request(t, http.MethodPut, "/api/users/"+aliceID+"/role", adminTok, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode(t, rec)["user"].(map[string]any)["role"])

	assert.Equal(t, http.StatusNotFound, app.request(t, http.MethodDelete, "/api/users/missing", adminTok, nil).Code)
	assert.Equal(t, http.StatusOK, app.request(t, http.MethodDelete, "/api/users/"+aliceID, adminTok, nil).Code)
}

func TestFeedbackUsesTokenSubject(t *testing.T) {
	app := newTestApp(t, nil)
	userTok, aliceID := app.signup(t, "a@x.com", "alice")

	rec := app.request(t, http.MethodPost, "/api/feedback", userTok, map[string]string{
		"instrumentId": "inst-1",
		"feedback":     "Warm tone",
		"userId":       "someone-else",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fb := decode(t, rec)["feedback"].(map[string]any)
	assert.Equal(t, aliceID, fb["userId"])

	rec = app.request(t, http.MethodPost, "/api/feedback", userTok, map[string]string{
		"instrumentId": "missing",
		"feedback":     "Warm tone",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request(t, http.MethodPost, "/api/feedback/"+fb["id"].(string)+"/response", userTok, map[string]string{"response": "thanks"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSecurityLogs(t *testing.T) {
	app := newTestApp(t, nil)
	userTok, _ := app.signup(t, "a@x.com", "alice")
	_, bobID := app.signup(t, "b@x.com", "bob")
	adminTok := app.promote(t, bobID)

	rec := app.request(t, http.MethodPost, "/api/security-logs", userTok, map[string]string{"action": "export"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.request(t, http.MethodPost, "/api/security-logs", userTok, map[string]string{
		"action": "export",
		"user":   "alice",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusForbidden, app.request(t, http.MethodGet, "/api/security-logs", userTok, nil).Code)

	rec = app.request(t, http.MethodGet, "/api/security-logs", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode(t, rec)["logs"].([]any)
	// two signups plus the client entry
	assert.Len(t, logs, 3)
	assert.Equal(t, "export", logs[0].(map[string]any)["action"])
}

func TestCreateInstrumentRequiresImage(t *testing.T) {
	app := newTestApp(t, nil)
	_, bobID := app.signup(t, "b@x.com", "bob")
	adminTok := app.promote(t, bobID)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Lute"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/instruments", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminTok)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Contains(t, body["fields"], "image")

	rec = app.request(t, http.MethodPost, "/api/instruments", adminTok, map[string]string{"name": "Lute"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	hs := NewHandlerSet(zerolog.Nop(), "test", Services{})
	engine := gin.New()
	engine.GET("/boom", func(c *gin.Context) {
		hs.respondError(c, errors.New("pq: connection refused to 10.0.0.1"))
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
}

func TestParseCategories(t *testing.T) {
	ids, err := parseCategories([]string{`["a","b"]`})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = parseCategories([]string{"a,b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = parseCategories([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	_, err = parseCategories([]string{"[broken"})
	assert.Error(t, err)
}
