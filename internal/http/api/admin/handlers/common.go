package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/importer"
	"github.com/wifi-vouchers/voucher-server/internal/qrcode"
	"github.com/wifi-vouchers/voucher-server/internal/store"
)

// Context keys shared with the admin auth middleware.
const (
	ContextAdminID     = "adminID"
	ContextAuthEnabled = "authEnabled"
)

// QRRenderer renders provisioning payloads as PNG images.
type QRRenderer interface {
	Render(ctx context.Context, payload string) ([]byte, error)
}

// errorStatus maps domain errors onto HTTP status codes and user-facing text.
func errorStatus(err error) (int, string) {
	var dataErr *store.DataAccessError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, importer.ErrNoValidCodes),
		errors.Is(err, importer.ErrInvalidEncoding),
		errors.Is(err, importer.ErrTooLarge):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, qrcode.ErrEncoding):
		return http.StatusUnprocessableEntity, "network credentials cannot be encoded as a QR code"
	case errors.As(err, &dataErr):
		return http.StatusInternalServerError, "database error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// abortJSON writes an error body for err and logs server-side failures.
func abortJSON(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// page builds the base view data shared by every HTML view.
func page(c *gin.Context, title string) gin.H {
	return gin.H{
		"Title":       title,
		"AuthEnabled": c.GetBool(ContextAuthEnabled),
	}
}

// renderMessage shows a message page with the given status.
func renderMessage(c *gin.Context, status int, title, message, back string) {
	data := page(c, title)
	data["Message"] = message
	data["IsError"] = status >= http.StatusBadRequest
	data["Back"] = back
	c.HTML(status, "message.html", data)
}

// renderError shows err as a message page, mapping it to a status code.
func renderError(c *gin.Context, title string, err error, back string) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	_ = c.Error(err)
	renderMessage(c, status, title, msg, back)
}

// redirect sends a see-other redirect after a form post.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
