package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wifi-vouchers/voucher-server/internal/metrics"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/store"
)

// APIHandler serves the JSON voucher API.
type APIHandler struct {
	networks *store.NetworkStore
	vouchers *store.VoucherStore
}

// NewAPIHandler constructs an APIHandler.
func NewAPIHandler(networks *store.NetworkStore, vouchers *store.VoucherStore) *APIHandler {
	return &APIHandler{networks: networks, vouchers: vouchers}
}

// printRequest defines the request body for batch print marking.
type printRequest struct {
	IDs []string `json:"ids"`
}

// ListNetworks returns all networks with their counts.
func (h *APIHandler) ListNetworks(c *gin.Context) {
	ctx := c.Request.Context()
	networks, errList := h.networks.ListAll(ctx)
	if errList != nil {
		abortJSON(c, errList)
		return
	}
	counts, errCounts := h.vouchers.CountsByNetwork(ctx)
	if errCounts != nil {
		abortJSON(c, errCounts)
		return
	}
	out := make([]gin.H, 0, len(networks))
	for i := range networks {
		item := networkJSON(&networks[i])
		item["counts"] = counts[networks[i].ID]
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"networks": out})
}

// GetNetwork returns one network.
func (h *APIHandler) GetNetwork(c *gin.Context) {
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, networkJSON(network))
}

// NetworkCounts returns the voucher counts of one network.
func (h *APIHandler) NetworkCounts(c *gin.Context) {
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	counts, errCounts := h.vouchers.CountsForNetwork(c.Request.Context(), network.ID)
	if errCounts != nil {
		abortJSON(c, errCounts)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// NetworkVouchers lists a network's vouchers; unprinted=true with an optional limit selects print candidates.
func (h *APIHandler) NetworkVouchers(c *gin.Context) {
	ctx := c.Request.Context()
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}

	var (
		vouchers []models.Voucher
		errList  error
	)
	if unprinted, _ := strconv.ParseBool(c.DefaultQuery("unprinted", "false")); unprinted {
		limit := 0
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			parsed, errAtoi := strconv.Atoi(raw)
			if errAtoi != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = parsed
		}
		vouchers, errList = h.vouchers.ListUnprintedForNetwork(ctx, network.ID, limit)
	} else {
		vouchers, errList = h.vouchers.ListForNetwork(ctx, network.ID)
	}
	if errList != nil {
		abortJSON(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchersJSON(vouchers)})
}

// ListVouchers returns every voucher.
func (h *APIHandler) ListVouchers(c *gin.Context) {
	vouchers, errList := h.vouchers.ListAll(c.Request.Context())
	if errList != nil {
		abortJSON(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchersJSON(vouchers)})
}

// UseVoucher marks a voucher used. Already used vouchers report updated=false.
func (h *APIHandler) UseVoucher(c *gin.Context) {
	h.transition(c, metrics.TransitionUsed)
}

// UnuseVoucher resets a voucher to unused.
func (h *APIHandler) UnuseVoucher(c *gin.Context) {
	h.transition(c, metrics.TransitionUnused)
}

func (h *APIHandler) transition(c *gin.Context, transition string) {
	ctx := c.Request.Context()
	id := c.Param("id")
	voucher, errGet := h.vouchers.Get(ctx, id)
	if errGet != nil {
		abortJSON(c, errGet)
		return
	}
	if voucher == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "voucher not found"})
		return
	}

	var (
		updated bool
		errMark error
	)
	if transition == metrics.TransitionUsed {
		updated, errMark = h.vouchers.MarkUsed(ctx, id)
	} else {
		updated, errMark = h.vouchers.MarkUnused(ctx, id)
	}
	if errMark != nil {
		abortJSON(c, errMark)
		return
	}
	if updated {
		metrics.IncTransition(transition)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// MarkPrinted flags the given vouchers as printed.
func (h *APIHandler) MarkPrinted(c *gin.Context) {
	var body printRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ids := make([]string, 0, len(body.IDs))
	for _, id := range body.IDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids are required"})
		return
	}
	printed, errMark := h.vouchers.MarkPrinted(c.Request.Context(), ids)
	if errMark != nil {
		abortJSON(c, errMark)
		return
	}
	metrics.AddPrinted(printed)
	c.JSON(http.StatusOK, gin.H{"printed": printed})
}

func (h *APIHandler) loadNetwork(c *gin.Context) (*models.Network, bool) {
	network, errGet := h.networks.Get(c.Request.Context(), c.Param("id"))
	if errGet != nil {
		abortJSON(c, errGet)
		return nil, false
	}
	if network == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "network not found"})
		return nil, false
	}
	return network, true
}

// networkJSON omits the passphrase; it only leaves the server inside QR images.
func networkJSON(network *models.Network) gin.H {
	return gin.H{
		"id":            network.ID,
		"name":          network.Name,
		"credential_id": network.CredentialID,
		"description":   network.Description,
		"is_active":     network.IsActive,
		"created_at":    network.CreatedAt,
	}
}

func vouchersJSON(vouchers []models.Voucher) []gin.H {
	out := make([]gin.H, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, gin.H{
			"id":         v.ID,
			"code":       v.Code,
			"network_id": v.NetworkID,
			"created_at": v.CreatedAt,
			"is_used":    v.IsUsed,
			"used_at":    formatTime(v.UsedAt),
			"is_printed": v.IsPrinted,
			"printed_at": formatTime(v.PrintedAt),
		})
	}
	return out
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
