package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error to avoid leaking details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		writeError(c, c.Errors.Last().Err)
	}
}

// ErrorBody builds the JSON error envelope for an AppError.
func ErrorBody(appErr *apperrors.AppError) gin.H {
	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return gin.H{"error": body}
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}

func writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"message", appErr.Message,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorBody(appErr))
		return
	}

	// Unexpected error: log full details, return generic message
	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorBody(apperrors.ErrInternalServer))
}
