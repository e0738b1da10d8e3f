package service

import (
	"context"
	"strings"

	"harmonia/api/internal/ids"
	"harmonia/api/internal/models"
)

type FeedbackService struct {
	store FeedbackStore
}

func NewFeedbackService(store FeedbackStore) *FeedbackService {
	return &FeedbackService{store: store}
}

// Submit records feedback from userID, which must come from the verified token.
func (s *FeedbackService) Submit(ctx context.Context, userID string, instrumentID string, body string) (models.Feedback, error) {
	instrumentID = strings.TrimSpace(instrumentID)
	body = strings.TrimSpace(body)

	fields := map[string]string{}
	if instrumentID == "" {
		fields["instrumentId"] = "is required"
	}
	if body == "" {
		fields["feedback"] = "is required"
	}
	if len(fields) > 0 {
		return models.Feedback{}, &ValidationError{Fields: fields}
	}

	return s.store.Create(ctx, models.Feedback{
		ID:           ids.New(),
		UserID:       userID,
		InstrumentID: instrumentID,
		Body:         body,
	})
}

func (s *FeedbackService) List(ctx context.Context) ([]models.Feedback, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Feedback{}
	}
	return out, nil
}

func (s *FeedbackService) Respond(ctx context.Context, id string, response string) (models.Feedback, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return models.Feedback{}, invalid("response", "is required")
	}
	return s.store.SetAdminResponse(ctx, id, response)
}
