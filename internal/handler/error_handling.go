package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"horror-story-server/internal/middleware"
	"horror-story-server/internal/models"
)

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	var upstreamErr *models.UpstreamError
	var malformedErr *models.MalformedOutputError

	switch {
	case errors.Is(err, models.ErrMissingCredential):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeConfiguration, Error: "Provider API key is not configured"}
	case errors.Is(err, models.ErrUnknownProvider):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeConfiguration, Error: "Provider is not configured"}
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Error: inputMessage(err)}
	case errors.As(err, &upstreamErr):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{
			Code:           models.ErrCodeUpstream,
			Error:          upstreamErr.Provider + " error",
			UpstreamStatus: upstreamErr.Status,
			Detail:         upstreamErr.Body,
		}
	case errors.As(err, &malformedErr):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{
			Code:     models.ErrCodeMalformedOutput,
			Error:    "Model returned malformed output: " + malformedErr.Reason,
			Detail:   malformedErr.Raw,
			Received: malformedErr.Received,
		}
	case errors.Is(err, models.ErrEmptyCompletion):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeMalformedOutput, Error: "Model returned empty output"}
	case errors.Is(err, models.ErrTransport):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeTransport, Error: "Provider request failed"}
	default:
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Error: "An unexpected internal error occurred"}
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", statusCode),
		zap.Error(err),
	}
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields...)
	} else {
		h.logger.Info("Request rejected", fields...)
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// inputMessage убирает префикс sentinel-ошибки, оставляя сообщение для клиента.
func inputMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, models.ErrBadRequest.Error()+": "); i >= 0 {
		return msg[i+len(models.ErrBadRequest.Error())+2:]
	}
	return msg
}

// invalidInput - тело запроса не удалось разобрать.
func (h *Handler) invalidInput(c *gin.Context, err error) {
	h.handleServiceError(c, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error()))
}

func (h *Handler) badRequest(c *gin.Context, format string, args ...any) {
	h.handleServiceError(c, models.NewInputError(format, args...))
}
