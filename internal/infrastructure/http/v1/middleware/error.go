package middleware

import (
	"github.com/gin-gonic/gin"

	"sessionhub/internal/core/apperror"
	appctx "sessionhub/internal/core/context"
	"sessionhub/pkg/logger"
)

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

// ErrorEnvelope is the JSON shape of every error response: {"error": {...}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			appErr = apperror.NewInternal(err)
		}

		body := ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}

		if appErr.Code == apperror.CodeInternal {
			logger.Error(ctx, "request failed",
				"code", appErr.Code,
				"error", err)
			// Internal causes never reach the client.
			body.Message = "Internal server error"
			body.Details = nil
			body.RequestID = appctx.GetRequestID(ctx)
		} else if appErr.Err != nil {
			logger.Debug(ctx, "request rejected",
				"code", appErr.Code,
				"cause", appErr.Err)
		}

		c.JSON(appErr.HTTPStatus, ErrorEnvelope{Error: body})
	}
}

// abort registers err for ErrorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
