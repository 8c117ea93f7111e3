package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/models"
	"finanzas/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	tokens       *middleware.TokenManager
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, tokens *middleware.TokenManager, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, tokens: tokens, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	FirstName string `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string `json:"last_name" binding:"required,min=2,max=100"`
	Phone     string `json:"phone" binding:"required,min=8,max=20"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// issueTokens signs a new token pair and stores the refresh token hash,
// revoking any previous refresh token.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (*AuthResponse, error) {
	access, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := h.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(c.Request.Context(), user.ID, middleware.HashToken(refresh)); err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         UserResponse{ID: user.ID, Email: user.Email},
	}, nil
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create a user with an active profile and return a token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditRegister, "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, resp)
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user. Five consecutive failures lock the account for 15 minutes.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Account disabled"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditLogin, "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token
// @Summary     Refresh tokens
// @Description Exchange a refresh token for a new token pair. The old refresh token stops working.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New token pair"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or revoked token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(c.Request.Context(), claims.UserID)
	if err != nil {
		if err == apperrors.ErrUserNotFound {
			err = apperrors.ErrInvalidToken
		}
		respondWithError(c, err)
		return
	}
	if stored == "" || stored != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token
// @Summary     Logout
// @Description Revoke the current refresh token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Logged out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.StoreRefreshTokenHash(c.Request.Context(), userID, ""); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditLogout, "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// ForgotPassword sends a password reset email
// @Summary     Request a password reset
// @Description Always succeeds. When the email belongs to a user, a reset link valid for one hour is sent.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} MessageResponse "Request accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		logger.Named("auth").Errorw("password reset request failed", "error", err)
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "If the email is registered, a reset link has been sent"})
}

// ResetPassword sets a new password from a reset token
// @Summary     Reset password
// @Description Set a new password using the token from the reset email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Reset token and new password"
// @Success     200 {object} MessageResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	userID, err := h.userService.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditResetPassword, "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}
