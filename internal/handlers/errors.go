package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"harmonia/api/internal/middleware"
	"harmonia/api/internal/repository"
	"harmonia/api/internal/service"
	"harmonia/api/internal/validation"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var notFoundErrors = []error{
	repository.ErrUserNotFound,
	repository.ErrCategoryNotFound,
	repository.ErrInstrumentNotFound,
	repository.ErrFeedbackNotFound,
}

func (h HandlerSet) respondError(c *gin.Context, err error) {
	h.respondErrorWith(c, err, http.StatusConflict)
}

// respondErrorWith maps err onto a status and a stable code. Unrecognised errors
// are logged and reported as internal_error with no detail.
func (h HandlerSet) respondErrorWith(c *gin.Context, err error, duplicateStatus int) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Fields: verr.Fields})
		return
	case errors.Is(err, repository.ErrDuplicateKey):
		c.JSON(duplicateStatus, errorResponse{Error: "duplicate_key"})
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_credentials"})
		return
	case errors.Is(err, repository.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_or_expired_token"})
		return
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "not_found"})
			return
		}
	}

	_ = c.Error(err)
	h.log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", middleware.RequestIDFrom(c)).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Fields: validation.Fields(err)})
		return false
	}
	return true
}
