package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sellerops/backend/internal/application/push"
	"github.com/sellerops/backend/internal/domain/integration"
)

// PushHandler handles outbound push API endpoints
type PushHandler struct {
	BaseHandler
	tracking *push.TrackingPushService
	replies  *push.ReplyPushService
	retry    *push.RetryQueueService
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(tracking *push.TrackingPushService, replies *push.ReplyPushService, retry *push.RetryQueueService) *PushHandler {
	return &PushHandler{
		tracking: tracking,
		replies:  replies,
		retry:    retry,
	}
}

// RegisterRoutes registers push routes under the API group
func (h *PushHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/integration/push")
	group.POST("/tracking", h.PushTracking)
	group.POST("/replies", h.PushReplies)
	group.POST("/retry/tracking", h.RetryTracking)
	group.POST("/retry/replies", h.RetryReplies)
}

// TrackingRowRequest is one shipment row in a tracking push request
type TrackingRowRequest struct {
	MarketOrderID  string `json:"market_order_id" binding:"required,max=100" example:"23000123456789"`
	TrackingNumber string `json:"tracking_number" binding:"required,max=50" example:"588712345678"`
	CourierName    string `json:"courier_name" binding:"max=100" example:"CJ대한통운"`
}

// PushTrackingRequest represents a tracking-number push batch
type PushTrackingRequest struct {
	Market string               `json:"market" binding:"required" example:"COUPANG"`
	Rows   []TrackingRowRequest `json:"rows" binding:"required,min=1,max=500,dive"`
}

// PushTracking godoc
// @Summary      Push tracking numbers to a marketplace
// @Description  Deliver shipment tracking numbers for a batch of orders. Per-row failures are reported in the batch result, never as an HTTP error.
// @Tags         push
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body PushTrackingRequest true "Tracking push batch"
// @Success      200 {object} dto.Response{data=push.BatchResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/tracking [post]
func (h *PushHandler) PushTracking(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req PushTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	market, err := integration.ParseMarketCode(req.Market)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]push.TrackingRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, push.TrackingRow{
			MarketOrderID:  row.MarketOrderID,
			TrackingNumber: row.TrackingNumber,
			CourierName:    row.CourierName,
		})
	}

	result, err := h.tracking.PushBatch(c.Request.Context(), ownerID, market, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReplyRowRequest is one inquiry reply in a reply push request
type ReplyRowRequest struct {
	InquiryID string `json:"inquiry_id" binding:"required,max=100" example:"INQ-20260901-001"`
	Content   string `json:"content" binding:"required,max=4000" example:"안녕하세요, 문의주신 상품은 내일 출고 예정입니다."`
}

// PushRepliesRequest represents an inquiry-reply push batch
type PushRepliesRequest struct {
	Market string            `json:"market" binding:"required" example:"SMARTSTORE"`
	Rows   []ReplyRowRequest `json:"rows" binding:"required,min=1,max=500,dive"`
}

// PushReplies godoc
// @Summary      Push inquiry replies to a marketplace
// @Description  Deliver CS inquiry answers for a batch of inquiries. Per-row failures are reported in the batch result.
// @Tags         push
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body PushRepliesRequest true "Reply push batch"
// @Success      200 {object} dto.Response{data=push.BatchResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/replies [post]
func (h *PushHandler) PushReplies(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req PushRepliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	market, err := integration.ParseMarketCode(req.Market)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]push.ReplyRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, push.ReplyRow{
			InquiryID: row.InquiryID,
			Content:   row.Content,
		})
	}

	result, err := h.replies.PushReplies(c.Request.Context(), ownerID, market, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RetryTrackingRequest represents a tracking replay request. Audit entries
// carry no payloads, so the original rows are re-supplied.
type RetryTrackingRequest struct {
	Strategy string               `json:"strategy" binding:"omitempty,oneof=latest all" example:"latest"`
	Rows     []TrackingRowRequest `json:"rows" binding:"required,min=1,max=500,dive"`
}

// RetryTracking godoc
// @Summary      Replay failed tracking pushes
// @Description  Re-attempt tracking pushes for markets with a trailing failure streak. Markets still inside their category cooldown are skipped and reported with their ready time.
// @Tags         push
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body RetryTrackingRequest true "Replay request"
// @Success      200 {object} dto.Response{data=push.ReplayReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/retry/tracking [post]
func (h *PushHandler) RetryTracking(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req RetryTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	strategy, err := push.ParseReplayStrategy(req.Strategy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]push.TrackingRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, push.TrackingRow{
			MarketOrderID:  row.MarketOrderID,
			TrackingNumber: row.TrackingNumber,
			CourierName:    row.CourierName,
		})
	}

	report, err := h.retry.ReplayTracking(c.Request.Context(), ownerID, strategy, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RetryRepliesRequest represents a reply replay request
type RetryRepliesRequest struct {
	Strategy string            `json:"strategy" binding:"omitempty,oneof=latest all" example:"latest"`
	Rows     []ReplyRowRequest `json:"rows" binding:"required,min=1,max=500,dive"`
}

// RetryReplies godoc
// @Summary      Replay failed inquiry-reply pushes
// @Description  Re-attempt reply pushes for markets with a trailing failure streak, honoring per-category cooldowns.
// @Tags         push
// @Accept       json
// @Produce      json
// @Param        X-Owner-ID header string false "Owner ID"
// @Param        request body RetryRepliesRequest true "Replay request"
// @Success      200 {object} dto.Response{data=push.ReplayReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /integration/push/retry/replies [post]
func (h *PushHandler) RetryReplies(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID")
		return
	}

	var req RetryRepliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	strategy, err := push.ParseReplayStrategy(req.Strategy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]push.ReplyRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, push.ReplyRow{
			InquiryID: row.InquiryID,
			Content:   row.Content,
		})
	}

	report, err := h.retry.ReplayReplies(c.Request.Context(), ownerID, strategy, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
