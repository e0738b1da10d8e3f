package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"harmonia/api/internal/ids"
	"harmonia/api/internal/models"
)

const (
	defaultSecurityLogLimit = 100
	maxSecurityLogLimit     = 1000
)

type SecurityLogService struct {
	store SecurityLogStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewSecurityLogService(store SecurityLogStore, log zerolog.Logger) *SecurityLogService {
	return &SecurityLogService{store: store, now: time.Now, log: log}
}

type SecurityLogInput struct {
	Action  string
	Actor   string
	Context string
	Detail  string
}

// Append writes a client-reported entry.
func (s *SecurityLogService) Append(ctx context.Context, in SecurityLogInput) (models.SecurityLogEntry, error) {
	in.Action = strings.TrimSpace(in.Action)
	in.Actor = strings.TrimSpace(in.Actor)
	if in.Action == "" {
		return models.SecurityLogEntry{}, invalid("action", "is required")
	}
	if in.Actor == "" {
		return models.SecurityLogEntry{}, invalid("user", "is required")
	}

	entry := models.SecurityLogEntry{
		ID:        ids.New(),
		Action:    models.SecurityAction(in.Action),
		Actor:     in.Actor,
		Context:   in.Context,
		Detail:    in.Detail,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return models.SecurityLogEntry{}, err
	}
	return entry, nil
}

// Record is the internal audit hook. A failed write is logged and never fails the
// operation being audited.
func (s *SecurityLogService) Record(ctx context.Context, action models.SecurityAction, actor, origin, detail string) {
	if s == nil {
		return
	}
	entry := models.SecurityLogEntry{
		ID:        ids.New(),
		Action:    action,
		Actor:     actor,
		Context:   origin,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", string(action)).Msg("security log write failed")
	}
}

func (s *SecurityLogService) List(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	if limit <= 0 {
		limit = defaultSecurityLogLimit
	}
	if limit > maxSecurityLogLimit {
		limit = maxSecurityLogLimit
	}
	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.SecurityLogEntry{}
	}
	return entries, nil
}
