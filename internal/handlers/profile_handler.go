package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/services"
)

// ProfileHandler serves the signed-in user's own profile.
type ProfileHandler struct {
	profileService services.ProfileServicer
	userService    services.UserServicer
	auditService   services.AuditServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.ProfileServicer, userService services.UserServicer, auditService services.AuditServicer) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, userService: userService, auditService: auditService}
}

// UpdateProfileRequest represents the editable profile fields.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string `json:"last_name" binding:"required,min=2,max=100"`
	Phone     string `json:"phone" binding:"required,min=8,max=20"`
}

// ChangePasswordRequest sets a new password for the signed-in user.
type ChangePasswordRequest struct {
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// GetProfile returns the user's profile
// @Summary     Get profile
// @Description Get the authenticated user's profile
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.UserWithProfile "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateProfile replaces the editable profile fields
// @Summary     Update profile
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.UserWithProfile "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateProfile, "profile", userID, c.ClientIP(),
		map[string]interface{}{"first_name": req.FirstName, "last_name": req.LastName, "phone": req.Phone})

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// ChangePassword sets a new password
// @Summary     Change password
// @Description Set a new password. Existing refresh tokens are revoked.
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "New password"
// @Success     200 {object} MessageResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditChangePassword, "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}
