package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"launchpad/internal/service"
)

// SaleHandler exposes the mutating operations: create, top-up, cancel,
// whitelist management, purchase, settlement and deployment recording.
type SaleHandler struct {
	Registry   *service.RegistryService
	Engine     *service.EngineService
	Settlement *service.SettlementService
	Logger     *zap.Logger
}

func (h *SaleHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sales")
	group.POST("", h.createSale)
	group.POST("/:id/top-up", h.topUp)
	group.DELETE("/:id", h.cancelSale)
	group.POST("/:id/whitelist", h.whitelistAdd)
	group.DELETE("/:id/whitelist/:address", h.whitelistRemove)
	group.POST("/:id/buy", h.buy)
	group.POST("/:id/settle", h.settle)
	group.POST("/:id/deployment", h.recordDeployment)
	group.DELETE("/:id/participations", h.clearParticipations)
}

type createSaleRequest struct {
	Caller           string          `json:"caller" binding:"required"`
	Owner            string          `json:"owner" binding:"required"`
	KycEnforced      bool            `json:"kyc_enforced"`
	Metadata         datatypes.JSON  `json:"metadata"`
	SaleToken        string          `json:"sale_token" binding:"required"`
	PaymentToken     string          `json:"payment_token" binding:"required"`
	Price            decimal.Decimal `json:"price"`
	MinBuyAmount     decimal.Decimal `json:"min_buy_amount"`
	MaxBuyAmount     decimal.Decimal `json:"max_buy_amount"`
	StartTime        int64           `json:"start_time" binding:"required"`
	EndTime          int64           `json:"end_time" binding:"required"`
	InitialInventory decimal.Decimal `json:"initial_inventory"`
}

// @Summary Create a sale
// @Tags sales
// @Accept json
// @Param request body createSaleRequest true "sale parameters"
// @Success 200 {object} apiResponse
// @Router /api/sales [post]
func (h *SaleHandler) createSale(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := h.Registry.Create(c.Request.Context(), service.CreateSaleParams{
		Caller:           req.Caller,
		Owner:            req.Owner,
		KycEnforced:      req.KycEnforced,
		Metadata:         req.Metadata,
		SaleToken:        req.SaleToken,
		PaymentToken:     req.PaymentToken,
		Price:            req.Price,
		MinBuyAmount:     req.MinBuyAmount,
		MaxBuyAmount:     req.MaxBuyAmount,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		InitialInventory: req.InitialInventory,
	})
	if err != nil {
		h.fail(c, "create sale failed", err)
		return
	}
	Ok(c, gin.H{"id": sale.ID}, nil)
}

type topUpRequest struct {
	Caller string          `json:"caller" binding:"required"`
	Token  string          `json:"token" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// @Summary Add inventory to a sale
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body topUpRequest true "inventory deposit"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/top-up [post]
func (h *SaleHandler) topUp(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := h.Registry.TopUp(c.Request.Context(), id, req.Caller, req.Token, req.Amount)
	if err != nil {
		h.fail(c, "top-up failed", err)
		return
	}
	Ok(c, gin.H{"id": sale.ID, "inventory_amount": sale.InventoryAmount}, nil)
}

type callerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// @Summary Cancel a sale with no sold tokens
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body callerRequest true "caller"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id} [delete]
func (h *SaleHandler) cancelSale(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Registry.Cancel(c.Request.Context(), id, req.Caller); err != nil {
		h.fail(c, "cancel failed", err)
		return
	}
	Ok(c, gin.H{"id": id, "cancelled": true}, nil)
}

type whitelistAddRequest struct {
	Caller       string   `json:"caller" binding:"required"`
	Participants []string `json:"participants" binding:"required"`
}

// @Summary Whitelist participants for a KYC-enforced sale
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body whitelistAddRequest true "participants"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/whitelist [post]
func (h *SaleHandler) whitelistAdd(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req whitelistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Registry.WhitelistAdd(c.Request.Context(), id, req.Caller, req.Participants); err != nil {
		h.fail(c, "whitelist add failed", err)
		return
	}
	Ok(c, gin.H{"id": id, "added": len(req.Participants)}, nil)
}

// @Summary Remove a participant from a sale's whitelist
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param address path string true "participant address"
// @Param request body callerRequest true "caller"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/whitelist/{address} [delete]
func (h *SaleHandler) whitelistRemove(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	address := c.Param("address")
	if err := h.Registry.WhitelistRemove(c.Request.Context(), id, req.Caller, address); err != nil {
		h.fail(c, "whitelist remove failed", err)
		return
	}
	Ok(c, gin.H{"id": id, "removed": address}, nil)
}

type buyRequest struct {
	Participant   string          `json:"participant" binding:"required"`
	PaymentToken  string          `json:"payment_token" binding:"required"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

// @Summary Buy sale tokens at the fixed price
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body buyRequest true "payment"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/buy [post]
func (h *SaleHandler) buy(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	result, err := h.Engine.Buy(c.Request.Context(), id, req.Participant, req.PaymentAmount, req.PaymentToken)
	if err != nil {
		h.fail(c, "buy failed", err)
		return
	}
	Ok(c, result, nil)
}

// @Summary Settle an ended sale, disbursing funds to the owner
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body callerRequest true "caller"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/settle [post]
func (h *SaleHandler) settle(c *gin.Context) {
	if h.Settlement == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	result, err := h.Settlement.Settle(c.Request.Context(), id, req.Caller)
	if err != nil {
		h.fail(c, "settle failed", err)
		return
	}
	Ok(c, result, nil)
}

type deploymentRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// @Summary Record the downstream entity deployed for a settled sale
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body deploymentRequest true "deployed address"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/deployment [post]
func (h *SaleHandler) recordDeployment(c *gin.Context) {
	if h.Settlement == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req deploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Settlement.RecordDeployment(c.Request.Context(), id, req.Caller, req.Address); err != nil {
		h.fail(c, "record deployment failed", err)
		return
	}
	Ok(c, gin.H{"id": id, "address": req.Address}, nil)
}

// @Summary Administrative bulk-clear of a sale's participation records
// @Tags sales
// @Accept json
// @Param id path int true "sale id"
// @Param request body callerRequest true "caller"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/participations [delete]
func (h *SaleHandler) clearParticipations(c *gin.Context) {
	if h.Registry == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	cleared, err := h.Registry.ClearParticipations(c.Request.Context(), id, req.Caller)
	if err != nil {
		h.fail(c, "clear participations failed", err)
		return
	}
	Ok(c, gin.H{"id": id, "cleared": cleared}, nil)
}

func (h *SaleHandler) fail(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, zap.Error(err))
	}
	Error(c, statusOf(err), err.Error(), map[string]any{
		"kind": string(service.KindOf(err)),
	})
}
