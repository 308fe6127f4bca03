package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/sellerops/backend/internal/application/sync"
	"github.com/sellerops/backend/internal/domain/integration"
)

// SyncHandler handles inbound marketplace sync API endpoints
type SyncHandler struct {
	BaseHandler
	orders    *appsync.OrderSyncService
	inquiries *appsync.InquirySyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orders *appsync.OrderSyncService, inquiries *appsync.InquirySyncService) *SyncHandler {
	return &SyncHandler{
		orders:    orders,
		inquiries: inquiries,
	}
}

// RegisterRoutes registers sync routes under the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/integration/sync")
	group.POST("/orders", h.SyncOrders)
	group.POST("/inquiries", h.SyncInquiries)
}

// SyncRequest represents a sync trigger. When CredentialID is empty the
// sync runs for every active credential of the owner.
type SyncRequest struct {
	CredentialID string `json:"credential_id" binding:"omitempty,uuid" example:"7b6c1df2-4a4e-4a87-9a36-1fddb6b2f7a1"`
}

// SyncResultResponse represents the outcome of one credential's sync
type SyncResultResponse struct {
	MarketCredentialID uuid.UUID `json:"market_credential_id"`
	FetchedCount       int       `json:"fetched_count"`
	UpsertedCount      int       `json:"upserted_count"`
	Warnings           []string  `json:"warnings,omitempty"`
}

func toSyncResultResponse(result *integration.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		MarketCredentialID: result.MarketCredentialID,
		FetchedCount:       result.FetchedCount,
		UpsertedCount:      result.UpsertedCount,
		Warnings:           result.Warnings,
	}
}

func toSyncResultResponses(results []integration.SyncResult) []SyncResultResponse {
	responses := make([]SyncResultResponse, 0, len(results))
	for i := range results {
		responses = append(responses, toSyncResultResponse(&results[i]))
	}
	return responses
}

// SyncOrders godoc
// @Summary      Pull recent orders from marketplaces
// @Description  Fetch and upsert recent orders for one credential or all active credentials of the owner. Credential and pull problems become warnings on the result, not HTTP errors.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body SyncRequest true "Sync trigger"
// @Success      200 {object} dto.Response{data=[]SyncResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/sync/orders [post]
func (h *SyncHandler) SyncOrders(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if req.CredentialID != "" {
		credentialID, err := uuid.Parse(req.CredentialID)
		if err != nil {
			h.BadRequest(c, "Invalid credential ID format")
			return
		}
		result, err := h.orders.Sync(c.Request.Context(), credentialID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toSyncResultResponse(result))
		return
	}

	results, err := h.orders.SyncAll(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncResultResponses(results))
}

// SyncInquiries godoc
// @Summary      Pull recent CS inquiries from marketplaces
// @Description  Fetch and upsert recent inquiries for one credential or all active credentials of the owner.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body SyncRequest true "Sync trigger"
// @Success      200 {object} dto.Response{data=[]SyncResultResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/sync/inquiries [post]
func (h *SyncHandler) SyncInquiries(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if req.CredentialID != "" {
		credentialID, err := uuid.Parse(req.CredentialID)
		if err != nil {
			h.BadRequest(c, "Invalid credential ID format")
			return
		}
		result, err := h.inquiries.Sync(c.Request.Context(), credentialID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toSyncResultResponse(result))
		return
	}

	results, err := h.inquiries.SyncAll(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSyncResultResponses(results))
}
