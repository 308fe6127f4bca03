package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sellerops/backend/internal/domain/integration"
)

// AuditHandler handles push audit log API endpoints
type AuditHandler struct {
	BaseHandler
	auditLog integration.PushAuditLogRepository
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditLog integration.PushAuditLogRepository) *AuditHandler {
	return &AuditHandler{auditLog: auditLog}
}

// RegisterRoutes registers audit log routes under the API group
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/integration/push/logs")
	group.GET("/batch/:id", h.ListByBatch)
	group.GET("/subject/:subjectId", h.ListBySubject)
}

// AuditEntryResponse represents one push audit log entry
type AuditEntryResponse struct {
	ID                 uuid.UUID  `json:"id"`
	SubjectID          string     `json:"subject_id"`
	MarketCredentialID *uuid.UUID `json:"market_credential_id,omitempty"`
	Market             string     `json:"market"`
	Kind               string     `json:"kind"`
	Status             string     `json:"status"`
	FailureCategory    string     `json:"failure_category,omitempty"`
	StatusCode         *int       `json:"status_code,omitempty"`
	Attempts           int        `json:"attempts"`
	Message            string     `json:"message,omitempty"`
	SourceBatchID      uuid.UUID  `json:"source_batch_id"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toAuditEntryResponses(entries []integration.PushAuditLogEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		response := AuditEntryResponse{
			ID:                 entry.ID,
			SubjectID:          entry.SubjectID,
			MarketCredentialID: entry.MarketCredentialID,
			Market:             entry.MarketCode.String(),
			Kind:               string(entry.Kind),
			Status:             entry.Status.String(),
			StatusCode:         entry.StatusCode,
			Attempts:           entry.Attempts,
			Message:            entry.Message,
			SourceBatchID:      entry.SourceBatchID,
			CreatedAt:          entry.CreatedAt,
		}
		if entry.FailureCategory != nil {
			response.FailureCategory = entry.FailureCategory.String()
		}
		responses = append(responses, response)
	}
	return responses
}

// ListByBatch godoc
// @Summary      List push audit entries of one batch
// @Description  Returns every audit entry written under one source batch, in write order.
// @Tags         push
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]AuditEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/logs/batch/{id} [get]
func (h *AuditHandler) ListByBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	entries, err := h.auditLog.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAuditEntryResponses(entries))
}

// ListBySubject godoc
// @Summary      List push audit entries of one order or inquiry
// @Description  Returns the full push history for one subject, in write order.
// @Tags         push
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        subjectId path string true "Market order or inquiry ID"
// @Success      200 {object} dto.Response{data=[]AuditEntryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/logs/subject/{subjectId} [get]
func (h *AuditHandler) ListBySubject(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	subjectID := c.Param("subjectId")
	if subjectID == "" {
		h.BadRequest(c, "Subject ID is required")
		return
	}

	entries, err := h.auditLog.ListBySubject(c.Request.Context(), ownerID, subjectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAuditEntryResponses(entries))
}
