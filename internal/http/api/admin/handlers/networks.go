package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/store"
)

// NetworkHandler serves the network admin pages.
type NetworkHandler struct {
	networks *store.NetworkStore
	vouchers *store.VoucherStore
	renderer QRRenderer
	authType string
}

// NewNetworkHandler constructs a NetworkHandler.
func NewNetworkHandler(networks *store.NetworkStore, vouchers *store.VoucherStore, renderer QRRenderer, authType string) *NetworkHandler {
	return &NetworkHandler{networks: networks, vouchers: vouchers, renderer: renderer, authType: authType}
}

// networkRow pairs a network with its voucher counts for the overview.
type networkRow struct {
	Network *models.Network
	Counts  models.VoucherCounts
}

// Overview lists networks with their counts alongside the create and upload forms.
func (h *NetworkHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	networks, errList := h.networks.ListAll(ctx)
	if errList != nil {
		renderError(c, "Networks unavailable", errList, "/admin")
		return
	}
	counts, errCounts := h.vouchers.CountsByNetwork(ctx)
	if errCounts != nil {
		renderError(c, "Networks unavailable", errCounts, "/admin")
		return
	}

	rows := make([]networkRow, 0, len(networks))
	for i := range networks {
		rows = append(rows, networkRow{Network: &networks[i], Counts: counts[networks[i].ID]})
	}
	data := page(c, "Networks")
	data["Networks"] = rows
	c.HTML(http.StatusOK, "admin.html", data)
}

// Create adds a network from the create form.
func (h *NetworkHandler) Create(c *gin.Context) {
	network := store.NewNetwork(
		c.PostForm("name"),
		c.PostForm("ssid"),
		c.PostForm("password"),
		c.PostForm("description"),
	)
	if errCreate := h.networks.Create(c.Request.Context(), network); errCreate != nil {
		renderError(c, "Network not created", errCreate, "/admin")
		return
	}
	log.WithFields(log.Fields{"network": network.ID, "ssid": network.CredentialID}).Info("network created")
	redirect(c, "/admin")
}

// Delete removes a network and its vouchers. Unknown ids redirect as well.
func (h *NetworkHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	removed, errDelete := h.networks.Delete(c.Request.Context(), id)
	if errDelete != nil {
		renderError(c, "Network not deleted", errDelete, "/admin")
		return
	}
	if removed {
		log.WithField("network", id).Info("network deleted")
	}
	redirect(c, "/admin")
}

// Update edits name, description and credentials. A blank password keeps the current one.
func (h *NetworkHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	back := "/admin/networks/" + network.ID + "/vouchers"

	name := c.PostForm("name")
	if strings.TrimSpace(name) == "" {
		name = network.Name
	}
	description := c.PostForm("description")
	if _, errInfo := h.networks.UpdateInfo(ctx, network.ID, name, &description); errInfo != nil {
		renderError(c, "Network not updated", errInfo, back)
		return
	}

	ssid := c.PostForm("ssid")
	if strings.TrimSpace(ssid) == "" {
		ssid = network.CredentialID
	}
	secret := c.PostForm("password")
	if secret == "" {
		secret = network.CredentialSecret
	}
	if ssid != network.CredentialID || secret != network.CredentialSecret {
		if _, errCred := h.networks.UpdateCredentials(ctx, network.ID, ssid, secret); errCred != nil {
			renderError(c, "Network not updated", errCred, back)
			return
		}
	}
	redirect(c, back)
}

// Toggle flips the active flag of a network.
func (h *NetworkHandler) Toggle(c *gin.Context) {
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	if _, errSet := h.networks.SetActive(c.Request.Context(), network.ID, !network.IsActive); errSet != nil {
		renderError(c, "Network not updated", errSet, "/admin")
		return
	}
	redirect(c, "/admin")
}

// Vouchers shows one network with its vouchers and counts.
func (h *NetworkHandler) Vouchers(c *gin.Context) {
	ctx := c.Request.Context()
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	vouchers, errList := h.vouchers.ListForNetwork(ctx, network.ID)
	if errList != nil {
		renderError(c, "Vouchers unavailable", errList, "/admin")
		return
	}
	counts, errCounts := h.vouchers.CountsForNetwork(ctx, network.ID)
	if errCounts != nil {
		renderError(c, "Vouchers unavailable", errCounts, "/admin")
		return
	}
	data := page(c, network.Name)
	data["Network"] = network
	data["Vouchers"] = vouchers
	data["Counts"] = counts
	c.HTML(http.StatusOK, "network_vouchers.html", data)
}

// QRCode returns the raw provisioning PNG for a network.
func (h *NetworkHandler) QRCode(c *gin.Context) {
	network, ok := h.loadNetwork(c)
	if !ok {
		return
	}
	png, errRender := h.renderer.Render(c.Request.Context(), network.ProvisioningPayload(h.authType))
	if errRender != nil {
		status, msg := errorStatus(errRender)
		_ = c.Error(errRender)
		c.String(status, msg)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// loadNetwork resolves :id or renders a not-found page.
func (h *NetworkHandler) loadNetwork(c *gin.Context) (*models.Network, bool) {
	network, errGet := h.networks.Get(c.Request.Context(), c.Param("id"))
	if errGet != nil {
		renderError(c, "Network unavailable", errGet, "/admin")
		return nil, false
	}
	if network == nil {
		renderMessage(c, http.StatusNotFound, "Network not found", "The requested network does not exist.", "/admin")
		return nil, false
	}
	return network, true
}
