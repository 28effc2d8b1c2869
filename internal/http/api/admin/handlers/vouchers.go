package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/importer"
	"github.com/wifi-vouchers/voucher-server/internal/metrics"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/store"
)

// VoucherHandler serves voucher upload and redemption pages.
type VoucherHandler struct {
	networks       *store.NetworkStore
	vouchers       *store.VoucherStore
	maxUploadBytes int64
}

// NewVoucherHandler constructs a VoucherHandler.
func NewVoucherHandler(networks *store.NetworkStore, vouchers *store.VoucherStore, maxUploadBytes int64) *VoucherHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = importer.DefaultMaxUploadBytes
	}
	return &VoucherHandler{networks: networks, vouchers: vouchers, maxUploadBytes: maxUploadBytes}
}

// Upload imports a CSV file, optionally scoped to a network.
func (h *VoucherHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	networkID := strings.TrimSpace(c.PostForm("network_id"))
	if networkID != "" {
		network, errGet := h.networks.Get(ctx, networkID)
		if errGet != nil {
			renderError(c, "Upload failed", errGet, "/admin")
			return
		}
		if network == nil {
			renderMessage(c, http.StatusNotFound, "Upload failed", "The selected network does not exist.", "/admin")
			return
		}
	}

	fileHeader, errFile := c.FormFile("csv_file")
	if errFile != nil {
		renderMessage(c, http.StatusBadRequest, "Upload failed", "A CSV file is required.", "/admin")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		renderError(c, "Upload failed", importer.ErrTooLarge, "/admin")
		return
	}
	file, errOpen := fileHeader.Open()
	if errOpen != nil {
		renderMessage(c, http.StatusBadRequest, "Upload failed", "The uploaded file could not be read.", "/admin")
		return
	}
	defer func() { _ = file.Close() }()

	vouchers, errParse := importer.ParseReader(file, h.maxUploadBytes)
	if errParse != nil {
		renderError(c, "Upload failed", errParse, "/admin")
		return
	}
	importer.AssignNetwork(vouchers, networkID)

	if errCreate := h.vouchers.CreateBatch(ctx, vouchers); errCreate != nil {
		renderError(c, "Upload failed", errCreate, "/admin")
		return
	}
	metrics.AddImported(len(vouchers))
	log.WithFields(log.Fields{"network": networkID, "count": len(vouchers)}).Info("vouchers imported")

	if networkID != "" {
		redirect(c, "/admin/networks/"+networkID+"/vouchers")
		return
	}
	redirect(c, "/admin")
}

// List shows every voucher.
func (h *VoucherHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	vouchers, errList := h.vouchers.ListAll(ctx)
	if errList != nil {
		renderError(c, "Vouchers unavailable", errList, "/admin")
		return
	}
	networks, errNetworks := h.networks.ListAll(ctx)
	if errNetworks != nil {
		renderError(c, "Vouchers unavailable", errNetworks, "/admin")
		return
	}
	names := make(map[string]string, len(networks))
	for _, network := range networks {
		names[network.ID] = network.Name
	}
	networkNames := make([]string, len(vouchers))
	for i, v := range vouchers {
		if v.NetworkID != nil {
			networkNames[i] = names[*v.NetworkID]
		}
	}

	data := page(c, "Vouchers")
	data["Vouchers"] = vouchers
	data["NetworkNames"] = networkNames
	c.HTML(http.StatusOK, "vouchers.html", data)
}

// Use marks a voucher redeemed and returns to its network page.
func (h *VoucherHandler) Use(c *gin.Context) {
	h.transition(c, metrics.TransitionUsed)
}

// Unuse resets a voucher to unused and returns to its network page.
func (h *VoucherHandler) Unuse(c *gin.Context) {
	h.transition(c, metrics.TransitionUnused)
}

func (h *VoucherHandler) transition(c *gin.Context, transition string) {
	ctx := c.Request.Context()
	voucher, errGet := h.vouchers.Get(ctx, c.Param("id"))
	if errGet != nil {
		renderError(c, "Voucher not updated", errGet, "/admin")
		return
	}
	if voucher == nil {
		renderMessage(c, http.StatusNotFound, "Voucher not found", "The requested voucher does not exist.", "/admin")
		return
	}

	changed, errMark := h.mark(c, voucher, transition)
	if errMark != nil {
		renderError(c, "Voucher not updated", errMark, backTo(voucher))
		return
	}
	if changed {
		metrics.IncTransition(transition)
	}
	redirect(c, backTo(voucher))
}

func (h *VoucherHandler) mark(c *gin.Context, voucher *models.Voucher, transition string) (bool, error) {
	switch transition {
	case metrics.TransitionUsed:
		return h.vouchers.MarkUsed(c.Request.Context(), voucher.ID)
	case metrics.TransitionUnused:
		return h.vouchers.MarkUnused(c.Request.Context(), voucher.ID)
	default:
		return false, fmt.Errorf("%w: unknown transition %q", store.ErrInvalid, transition)
	}
}

// backTo returns the page listing the voucher.
func backTo(voucher *models.Voucher) string {
	if voucher.NetworkID != nil && *voucher.NetworkID != "" {
		return "/admin/networks/" + *voucher.NetworkID + "/vouchers"
	}
	return "/vouchers"
}
