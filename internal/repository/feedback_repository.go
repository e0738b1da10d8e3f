package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"harmonia/api/internal/models"
)

var ErrFeedbackNotFound = errors.New("feedback not found")

const feedbackColumns = `id, user_id, instrument_id, body, admin_response, created_at, updated_at`

type FeedbackRepository struct {
	db DB
}

func NewFeedbackRepository(db DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func scanFeedback(row pgx.Row) (models.Feedback, error) {
	var f models.Feedback
	if err := row.Scan(&f.ID, &f.UserID, &f.InstrumentID, &f.Body, &f.AdminResponse, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Feedback{}, ErrFeedbackNotFound
		}
		return models.Feedback{}, err
	}
	return f, nil
}

func (r *FeedbackRepository) Create(ctx context.Context, f models.Feedback) (models.Feedback, error) {
	const query = `
		INSERT INTO feedback (id, user_id, instrument_id, body, admin_response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', NOW(), NOW())
		RETURNING ` + feedbackColumns
	created, err := scanFeedback(r.db.QueryRow(ctx, query, f.ID, f.UserID, f.InstrumentID, f.Body))
	if isForeignKeyViolation(err) {
		return models.Feedback{}, ErrInstrumentNotFound
	}
	return created, err
}

func (r *FeedbackRepository) List(ctx context.Context) ([]models.Feedback, error) {
	rows, err := r.db.Query(ctx, `SELECT `+feedbackColumns+` FROM feedback ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FeedbackRepository) SetAdminResponse(ctx context.Context, id string, response string) (models.Feedback, error) {
	const query = `
		UPDATE feedback SET admin_response = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + feedbackColumns
	return scanFeedback(r.db.QueryRow(ctx, query, id, response))
}
