package handlers

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/metrics"
	"github.com/wifi-vouchers/voucher-server/internal/qrcode"
	"github.com/wifi-vouchers/voucher-server/internal/store"
)

// PrintHandler renders printable voucher cards.
type PrintHandler struct {
	networks *store.NetworkStore
	vouchers *store.VoucherStore
	renderer QRRenderer
	authType string
}

// NewPrintHandler constructs a PrintHandler.
func NewPrintHandler(networks *store.NetworkStore, vouchers *store.VoucherStore, renderer QRRenderer, authType string) *PrintHandler {
	return &PrintHandler{networks: networks, vouchers: vouchers, renderer: renderer, authType: authType}
}

// Print claims up to count unprinted vouchers, marks them printed and renders them as cards.
// A count of zero prints every unprinted voucher.
func (h *PrintHandler) Print(c *gin.Context) {
	ctx := c.Request.Context()

	network, errGet := h.networks.Get(ctx, c.Param("id"))
	if errGet != nil {
		renderError(c, "Print failed", errGet, "/admin")
		return
	}
	if network == nil {
		renderMessage(c, http.StatusNotFound, "Network not found", "The requested network does not exist.", "/admin")
		return
	}
	back := "/admin/networks/" + network.ID + "/vouchers"
	if !network.IsActive {
		renderMessage(c, http.StatusConflict, "Print failed", "Inactive networks cannot print vouchers.", back)
		return
	}

	count := 0
	if raw := strings.TrimSpace(c.PostForm("count")); raw != "" {
		parsed, errAtoi := strconv.Atoi(raw)
		if errAtoi != nil || parsed < 0 {
			renderMessage(c, http.StatusBadRequest, "Print failed", "Count must be zero or a positive number.", back)
			return
		}
		count = parsed
	}

	png, errRender := h.renderer.Render(ctx, network.ProvisioningPayload(h.authType))
	if errRender != nil {
		renderError(c, "Print failed", errRender, back)
		return
	}

	cards, errClaim := h.vouchers.ClaimUnprinted(ctx, network.ID, count)
	if errClaim != nil {
		renderError(c, "Print failed", errClaim, back)
		return
	}

	data := page(c, "Print "+network.Name)
	data["Network"] = network
	data["Cards"] = cards
	if len(cards) == 0 {
		c.HTML(http.StatusOK, "print.html", data)
		return
	}
	metrics.AddPrinted(len(cards))
	log.WithFields(log.Fields{"network": network.ID, "printed": len(cards)}).Info("voucher cards printed")

	// data URIs are only trusted in src attributes when typed as URLs
	data["QRCode"] = template.URL(qrcode.DataURI(png))
	c.HTML(http.StatusOK, "print.html", data)
}
