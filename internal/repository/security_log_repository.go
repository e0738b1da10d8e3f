package repository

import (
	"context"

	"harmonia/api/internal/models"
)

// SecurityLogRepository only ever inserts and reads; there is no update path.
type SecurityLogRepository struct {
	db DB
}

func NewSecurityLogRepository(db DB) *SecurityLogRepository {
	return &SecurityLogRepository{db: db}
}

func (r *SecurityLogRepository) Append(ctx context.Context, entry models.SecurityLogEntry) error {
	const query = `
		INSERT INTO security_logs (id, action, actor, context, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.Action, entry.Actor, entry.Context, entry.Detail, entry.Timestamp)
	return err
}

func (r *SecurityLogRepository) List(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	const query = `
		SELECT id, action, actor, context, detail, created_at
		FROM security_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SecurityLogEntry
	for rows.Next() {
		var e models.SecurityLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.Context, &e.Detail, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
