package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/period"
	"finanzas/internal/uuid"
	"finanzas/internal/validator"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithDetails(apperrors.ErrInvalidInput, map[string]string{param: "must be a valid UUID"})
	}
	return id, nil
}

// bindError turns a binding failure into INVALID_INPUT with per-field details.
func bindError(err error) error {
	return apperrors.WithDetails(apperrors.ErrInvalidInput, validator.ToDetails(err))
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and details.
// Otherwise it logs the unexpected error and returns a generic internal
// server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, middleware.ErrorBody(appErr))
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, middleware.ErrorBody(apperrors.ErrInternalServer))
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD. Bare dates land at noon
// in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, apperrors.WithDetails(apperrors.ErrInvalidInput,
			map[string]string{"date": "must be RFC3339 or YYYY-MM-DD"})
	}
	return d.Add(12 * time.Hour), nil
}

// parsePeriodQuery reads the optional year and month query parameters.
// Both or neither must be present; neither yields nil.
func parsePeriodQuery(c *gin.Context) (*period.Period, error) {
	yearStr, monthStr := c.Query("year"), c.Query("month")
	if yearStr == "" && monthStr == "" {
		return nil, nil
	}
	if yearStr == "" || monthStr == "" {
		return nil, apperrors.WithDetails(apperrors.ErrInvalidInput,
			map[string]string{"period": "year and month must be given together"})
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, apperrors.ErrInvalidPeriod
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return nil, apperrors.ErrInvalidPeriod
	}
	p, err := period.New(year, time.Month(month))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
