package service

import (
	"context"
	"io"
	"time"

	"harmonia/api/internal/mail"
	"harmonia/api/internal/models"
)

// UserStore is the credential store. Uniqueness of email and username is enforced
// by the store itself, and RedeemResetToken must compare-and-clear atomically.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	Save(ctx context.Context, user models.User) error
	SetResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	RedeemResetToken(ctx context.Context, tokenHash string, passwordHash string, now time.Time) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

type MailOutbox interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

type SecurityLogStore interface {
	Append(ctx context.Context, entry models.SecurityLogEntry) error
	List(ctx context.Context, limit int) ([]models.SecurityLogEntry, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c models.Category) (models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (models.Category, error)
	Update(ctx context.Context, c models.Category) (models.Category, error)
	Delete(ctx context.Context, id string) error
}

type InstrumentStore interface {
	Create(ctx context.Context, in models.Instrument) (models.Instrument, error)
	List(ctx context.Context) ([]models.Instrument, error)
	GetByID(ctx context.Context, id string) (models.Instrument, error)
	Update(ctx context.Context, in models.Instrument) (models.Instrument, error)
	Delete(ctx context.Context, id string) error
}

type FeedbackStore interface {
	Create(ctx context.Context, f models.Feedback) (models.Feedback, error)
	List(ctx context.Context) ([]models.Feedback, error)
	SetAdminResponse(ctx context.Context, id string, response string) (models.Feedback, error)
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
