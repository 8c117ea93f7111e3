package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// AdminHandler serves roster management. Routes are mounted behind
// RequireAdmin.
type AdminHandler struct {
	adminService services.AdminServicer
	auditService services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService services.AdminServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{adminService: adminService, auditService: auditService}
}

// CreateUserRequest is the admin payload for a new user.
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email,max=255"`
	Password  string      `json:"password" binding:"required,min=6,max=128"`
	FirstName string      `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string      `json:"last_name" binding:"required,min=2,max=100"`
	Phone     string      `json:"phone" binding:"required,min=8,max=20"`
	Role      models.Role `json:"role" binding:"required,user_role"`
	Active    *bool       `json:"active" binding:"required"`
}

// UpdateUserRequest carries the profile fields an admin may change.
type UpdateUserRequest struct {
	FirstName *string      `json:"first_name" binding:"omitempty,min=2,max=100"`
	LastName  *string      `json:"last_name" binding:"omitempty,min=2,max=100"`
	Phone     *string      `json:"phone" binding:"omitempty,min=8,max=20"`
	Role      *models.Role `json:"role" binding:"omitempty,user_role"`
	Active    *bool        `json:"active"`
}

// GetUserStats returns roster counters
// @Summary     Roster statistics
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.UserStats "Total and inactive users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Router      /admin/users/stats [get]
func (h *AdminHandler) GetUserStats(c *gin.Context) {
	stats, err := h.adminService.GetUserStats(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers returns the roster
// @Summary     List users
// @Description Ten users per page, newest first. search matches first name, last name or email.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page   query int    false "Page number (default 1)"
// @Param       search query string false "Case-insensitive substring"
// @Success     200 {object} pagination.PageResponse[models.UserWithProfile] "Paginated users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.adminService.ListUsers(c.Request.Context(), page, c.Query("search"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateUser adds a user with a profile
// @Summary     Create user
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} models.UserWithProfile "User created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.adminService.CreateUser(c.Request.Context(), services.AdminUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		Active:    *req.Active,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, services.AuditAdminCreateUser, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role, "active": user.Active})

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUser changes a user's profile
// @Summary     Update user
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} models.UserWithProfile "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), userID, services.AdminUserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		Active:    req.Active,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, services.AuditAdminUpdateUser, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"role": user.Role, "active": user.Active})

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes a user and all their data
// @Summary     Delete user
// @Description Deletes the user's transactions, categories, profile and account. Admins cannot delete themselves.
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse "User deleted"
// @Failure     400 {object} ErrorResponse "Cannot delete yourself"
// @Failure     403 {object} ErrorResponse "Admin role required"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actorID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actorID, services.AuditAdminDeleteUser, "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
