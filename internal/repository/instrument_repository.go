package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"harmonia/api/internal/models"
)

var ErrInstrumentNotFound = errors.New("instrument not found")

const instrumentColumns = `id, name, description, historical_background, category_ids, image_url, video_url, audio_url, created_at, updated_at`

type InstrumentRepository struct {
	db DB
}

func NewInstrumentRepository(db DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

func scanInstrument(row pgx.Row) (models.Instrument, error) {
	var in models.Instrument
	if err := row.Scan(
		&in.ID,
		&in.Name,
		&in.Description,
		&in.HistoricalBackground,
		&in.CategoryIDs,
		&in.ImageURL,
		&in.VideoURL,
		&in.AudioURL,
		&in.CreatedAt,
		&in.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Instrument{}, ErrInstrumentNotFound
		}
		return models.Instrument{}, err
	}
	if in.CategoryIDs == nil {
		in.CategoryIDs = []string{}
	}
	return in, nil
}

func (r *InstrumentRepository) Create(ctx context.Context, in models.Instrument) (models.Instrument, error) {
	const query = `
		INSERT INTO instruments (
			id, name, description, historical_background, category_ids, image_url, video_url, audio_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
		RETURNING ` + instrumentColumns

	return scanInstrument(r.db.QueryRow(ctx, query,
		in.ID,
		in.Name,
		in.Description,
		in.HistoricalBackground,
		in.CategoryIDs,
		in.ImageURL,
		in.VideoURL,
		in.AudioURL,
	))
}

func (r *InstrumentRepository) List(ctx context.Context) ([]models.Instrument, error) {
	const query = `SELECT ` + instrumentColumns + ` FROM instruments ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		in, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (models.Instrument, error) {
	const query = `SELECT ` + instrumentColumns + ` FROM instruments WHERE id = $1`
	return scanInstrument(r.db.QueryRow(ctx, query, id))
}

func (r *InstrumentRepository) Update(ctx context.Context, in models.Instrument) (models.Instrument, error) {
	const query = `
		UPDATE instruments SET
			name = $2,
			description = $3,
			historical_background = $4,
			category_ids = $5,
			image_url = $6,
			video_url = $7,
			audio_url = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + instrumentColumns

	return scanInstrument(r.db.QueryRow(ctx, query,
		in.ID,
		in.Name,
		in.Description,
		in.HistoricalBackground,
		in.CategoryIDs,
		in.ImageURL,
		in.VideoURL,
		in.AudioURL,
	))
}

func (r *InstrumentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM instruments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInstrumentNotFound
	}
	return nil
}
