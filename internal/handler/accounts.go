package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad/internal/treasury"
)

// AccountHandler is the deposit hook and balance view over the treasury.
// Funds arrive from outside through Credit; the engines only move them.
type AccountHandler struct {
	Treasury *treasury.Store
	Logger   *zap.Logger
}

func (h *AccountHandler) Register(r *gin.Engine) {
	r.POST("/api/accounts/credit", h.credit)
	r.GET("/api/accounts/balance", h.balance)
}

type creditRequest struct {
	Token   string          `json:"token" binding:"required"`
	Address string          `json:"address" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

// @Summary Credit a deposit to an account
// @Tags accounts
// @Accept json
// @Param request body creditRequest true "deposit"
// @Success 200 {object} apiResponse
// @Router /api/accounts/credit [post]
func (h *AccountHandler) credit(c *gin.Context) {
	if h.Treasury == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Treasury.Credit(c.Request.Context(), req.Token, req.Address, req.Amount); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("credit failed", zap.Error(err))
		}
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, gin.H{"token": req.Token, "address": req.Address}, nil)
}

// @Summary Read an account balance
// @Tags accounts
// @Param token query string true "token"
// @Param address query string true "address"
// @Success 200 {object} apiResponse
// @Router /api/accounts/balance [get]
func (h *AccountHandler) balance(c *gin.Context) {
	if h.Treasury == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	address := strings.TrimSpace(c.Query("address"))
	if token == "" || address == "" {
		Error(c, http.StatusBadRequest, "token and address are required", nil)
		return
	}
	balance, err := h.Treasury.Balance(c.Request.Context(), token, address)
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, gin.H{"token": token, "address": address, "balance": balance}, nil)
}
