package handlers

import (
	"time"

	"harmonia/api/internal/models"
)

// userResponse exposes the public fields of an account. Credentials and reset
// state never leave the service.
type userResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Username:  u.UsernameOrEmpty(),
		Email:     u.Email,
		Role:      string(u.Role),
		Provider:  string(u.Provider),
		CreatedAt: u.CreatedAt,
	}
}

type categoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryResponse(c models.Category) categoryResponse {
	return categoryResponse(c)
}

type instrumentResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	HistoricalBackground string    `json:"historicalBackground"`
	Categories           []string  `json:"categories"`
	ImageURL             string    `json:"imageUrl"`
	VideoURL             *string   `json:"videoUrl,omitempty"`
	AudioURL             *string   `json:"audioUrl,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func toInstrumentResponse(in models.Instrument) instrumentResponse {
	categories := in.CategoryIDs
	if categories == nil {
		categories = []string{}
	}
	return instrumentResponse{
		ID:                   in.ID,
		Name:                 in.Name,
		Description:          in.Description,
		HistoricalBackground: in.HistoricalBackground,
		Categories:           categories,
		ImageURL:             in.ImageURL,
		VideoURL:             in.VideoURL,
		AudioURL:             in.AudioURL,
		CreatedAt:            in.CreatedAt,
		UpdatedAt:            in.UpdatedAt,
	}
}

type feedbackResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	InstrumentID  string    `json:"instrumentId"`
	Feedback      string    `json:"feedback"`
	AdminResponse string    `json:"adminResponse,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toFeedbackResponse(f models.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:            f.ID,
		UserID:        f.UserID,
		InstrumentID:  f.InstrumentID,
		Feedback:      f.Body,
		AdminResponse: f.AdminResponse,
		CreatedAt:     f.CreatedAt,
	}
}

type securityLogResponse struct {
	ID             string    `json:"id"`
	Action         string    `json:"action"`
	User           string    `json:"user"`
	AdditionalInfo string    `json:"additionalInfo,omitempty"`
	ActionDetails  string    `json:"actionDetails,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func toSecurityLogResponse(e models.SecurityLogEntry) securityLogResponse {
	return securityLogResponse{
		ID:             e.ID,
		Action:         string(e.Action),
		User:           e.Actor,
		AdditionalInfo: e.Context,
		ActionDetails:  e.Detail,
		Timestamp:      e.Timestamp,
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
