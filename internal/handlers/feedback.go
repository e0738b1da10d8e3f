package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type feedbackRequest struct {
	InstrumentID string `json:"instrumentId" binding:"required"`
	Feedback     string `json:"feedback" binding:"required,max=5000"`
}

// SubmitFeedback attributes feedback to the token subject; any user id in the body
// is ignored.
func (h HandlerSet) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	fb, err := h.svc.Feedback.Submit(c.Request.Context(), identity(c), req.InstrumentID, req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Feedback submitted successfully",
		"feedback": toFeedbackResponse(fb),
	})
}

func (h HandlerSet) ListFeedback(c *gin.Context) {
	items, err := h.svc.Feedback.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": mapSlice(items, toFeedbackResponse)})
}

type feedbackResponseRequest struct {
	Response string `json:"response" binding:"required,max=5000"`
}

func (h HandlerSet) RespondFeedback(c *gin.Context) {
	var req feedbackResponseRequest
	if !bindJSON(c, &req) {
		return
	}

	fb, err := h.svc.Feedback.Respond(c.Request.Context(), c.Param("id"), req.Response)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": toFeedbackResponse(fb)})
}
