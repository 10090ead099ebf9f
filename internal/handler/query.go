package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
	"launchpad/internal/service"
	"launchpad/internal/treasury"
)

// QueryHandler exposes the read-only views over the registry.
type QueryHandler struct {
	Query *service.QueryService
}

func (h *QueryHandler) Register(r *gin.Engine) {
	r.GET("/api/sales", h.listSales)
	r.GET("/api/sales/:id", h.getSale)
	r.GET("/api/sales/:id/participants", h.listParticipants)
	r.GET("/api/sales/:id/whitelist", h.listWhitelist)
	r.GET("/api/participants/:address/sales", h.listByParticipant)
	r.GET("/api/raised-by-payment-token", h.raisedByPaymentToken)
	r.GET("/api/tokens/:token/launched", h.isTokenLaunched)
}

// @Summary List sales
// @Tags queries
// @Param status query string false "pending|active|ended|settled"
// @Param owner query string false "owner address"
// @Param payment_token query string false "payment token"
// @Param since query int false "created since (unix seconds)"
// @Param sort_by query string false "id|start_time|end_time|total_raised|created_at"
// @Param order query string false "asc|desc"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} apiResponse
// @Router /api/sales [get]
func (h *QueryHandler) listSales(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	opts := service.ListOptions{
		Owner:        strQueryPtr(c, "owner"),
		PaymentToken: strQueryPtr(c, "payment_token"),
		Limit:        intQuery(c, "limit", 50),
		Offset:       intQuery(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			Error(c, http.StatusBadRequest, "unknown status filter", nil)
			return
		}
		opts.Status = &status
	}
	if since := intQuery(c, "since", 0); since > 0 {
		t := time.Unix(int64(since), 0).UTC()
		opts.Since = &t
	}
	opts.OrderBy = parseOrder(c.Query("sort_by"), map[string]string{
		"id":           "id",
		"start_time":   "start_time",
		"end_time":     "end_time",
		"total_raised": "total_raised",
		"created_at":   "created_at",
	})
	if strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc") {
		asc := true
		opts.Asc = &asc
	}
	items, total, err := h.Query.ListSales(c.Request.Context(), opts)
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// @Summary Get one sale with its derived status
// @Tags queries
// @Param id path int true "sale id"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id} [get]
func (h *QueryHandler) getSale(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	view, err := h.Query.GetSale(c.Request.Context(), id)
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, view, nil)
}

// @Summary List buyers of a sale with their cumulative allocations
// @Tags queries
// @Param id path int true "sale id"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/participants [get]
func (h *QueryHandler) listParticipants(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	items, err := h.Query.Participants(c.Request.Context(), id, intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary List whitelisted participants of a sale
// @Tags queries
// @Param id path int true "sale id"
// @Success 200 {object} apiResponse
// @Router /api/sales/{id}/whitelist [get]
func (h *QueryHandler) listWhitelist(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	items, err := h.Query.Whitelist(c.Request.Context(), id, intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary List sales a participant has bought into
// @Tags queries
// @Param address path string true "participant address"
// @Success 200 {object} apiResponse
// @Router /api/participants/{address}/sales [get]
func (h *QueryHandler) listByParticipant(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Query.ListByParticipant(c.Request.Context(), c.Param("address"))
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Aggregate raised amounts grouped by payment token
// @Tags queries
// @Success 200 {object} apiResponse
// @Router /api/raised-by-payment-token [get]
func (h *QueryHandler) raisedByPaymentToken(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	rows, err := h.Query.RaisedByPaymentToken(c.Request.Context())
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, rows, nil)
}

// @Summary Report whether a live sale claims the token
// @Tags queries
// @Param token path string true "sale token"
// @Success 200 {object} apiResponse
// @Router /api/tokens/{token}/launched [get]
func (h *QueryHandler) isTokenLaunched(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	token := c.Param("token")
	launched, err := h.Query.IsTokenLaunched(c.Request.Context(), token)
	if err != nil {
		Error(c, statusOf(err), err.Error(), nil)
		return
	}
	Ok(c, gin.H{"token": token, "launched": launched}, nil)
}

// --- shared helpers ----------------------------------------------------------

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid sale id", nil)
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func strQueryPtr(c *gin.Context, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func parseOrder(raw string, allowed map[string]string) string {
	column, ok := allowed[strings.TrimSpace(strings.ToLower(raw))]
	if !ok {
		return ""
	}
	return column
}

// statusOf maps the service error taxonomy onto HTTP statuses: the caller can
// tell "fix your input" (400) from "not found" (404) from "not allowed" (403)
// from "wrong phase, maybe retry later" (409).
func statusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindTokenMismatch:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindState, service.KindQuota:
		return http.StatusConflict
	}
	if errors.Is(err, treasury.ErrInsufficientBalance) || errors.Is(err, treasury.ErrBadTransfer) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
