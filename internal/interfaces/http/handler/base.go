package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sellerops/backend/internal/application/push"
	"github.com/sellerops/backend/internal/domain/integration"
	"github.com/sellerops/backend/internal/interfaces/http/dto"
	"github.com/sellerops/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getOwnerID extracts the operator account ID from the X-Owner-ID header.
// A default development owner applies when the header is absent.
func getOwnerID(c *gin.Context) (uuid.UUID, error) {
	ownerIDStr := c.GetHeader("X-Owner-ID")
	if ownerIDStr == "" {
		return uuid.MustParse("00000000-0000-0000-0000-000000000001"), nil
	}
	return uuid.Parse(ownerIDStr)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindingError reports a request-body binding failure. Validator errors
// carry per-field details; anything else becomes a generic bad request.
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	if details := middleware.FormatValidationErrors(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", getRequestID(c), details,
		))
		return
	}
	h.BadRequest(c, err.Error())
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses. Per-row push
// failures never reach this path; only batch-level failures do.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, integration.ErrCredentialNotFound),
		errors.Is(err, integration.ErrOrderNotFound),
		errors.Is(err, integration.ErrInquiryNotFound):
		h.NotFound(c, err.Error())
	case errors.Is(err, integration.ErrUnknownMarketCode),
		errors.Is(err, integration.ErrGatewayNotRegistered):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeUnknownMarket, err.Error())
	case errors.Is(err, push.ErrUnknownReplayStrategy):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
