package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harmonia/api/internal/service"
)

func (h HandlerSet) ListSecurityLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.svc.SecurityLogs.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": mapSlice(entries, toSecurityLogResponse)})
}

type securityLogRequest struct {
	Action         string `json:"action" binding:"required,max=100"`
	User           string `json:"user" binding:"required,max=254"`
	AdditionalInfo string `json:"additionalInfo" binding:"max=2000"`
	ActionDetails  string `json:"actionDetails" binding:"max=2000"`
}

func (h HandlerSet) AppendSecurityLog(c *gin.Context) {
	var req securityLogRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.svc.SecurityLogs.Append(c.Request.Context(), service.SecurityLogInput{
		Action:  req.Action,
		Actor:   req.User,
		Context: req.AdditionalInfo,
		Detail:  req.ActionDetails,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"log": toSecurityLogResponse(entry)})
}
