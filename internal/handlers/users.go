package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harmonia/api/internal/service"
)

func (h HandlerSet) Profile(c *gin.Context) {
	user, err := h.svc.Users.Profile(c.Request.Context(), identity(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type updateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,max=100"`
	Username *string `json:"username" binding:"omitempty,username"`
	Email    *string `json:"email" binding:"omitempty,email,max=254"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Users.UpdateProfile(c.Request.Context(), identity(c), service.ProfileInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.respondErrorWith(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": mapSlice(users, toUserResponse)})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.svc.Users.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Users.ChangeRole(c.Request.Context(), identity(c), c.Param("id"), req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) UserDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "User Dashboard"})
}

func (h HandlerSet) AdminDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Admin Dashboard"})
}
