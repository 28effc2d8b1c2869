// Package admin registers the admin UI and JSON API routes.
package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	"github.com/wifi-vouchers/voucher-server/internal/http/api/admin/handlers"
	"github.com/wifi-vouchers/voucher-server/internal/store"
	"gorm.io/gorm"
)

// apiPrefix roots the JSON API.
const apiPrefix = "/api/v1"

// Options carries the dependencies of the admin routes.
type Options struct {
	DB             *gorm.DB
	Networks       *store.NetworkStore
	Vouchers       *store.VoucherStore
	Renderer       handlers.QRRenderer
	JWT            config.JWTConfig
	AuthType       string
	MaxUploadBytes int64
}

// RegisterAdminRoutes registers the HTML admin pages and the JSON API.
func RegisterAdminRoutes(r *gin.Engine, opts Options) {
	if r == nil || opts.DB == nil {
		return
	}
	networks := opts.Networks
	if networks == nil {
		networks = store.NewNetworkStore(opts.DB)
	}
	vouchers := opts.Vouchers
	if vouchers == nil {
		vouchers = store.NewVoucherStore(opts.DB)
	}

	networkHandler := handlers.NewNetworkHandler(networks, vouchers, opts.Renderer, opts.AuthType)
	voucherHandler := handlers.NewVoucherHandler(networks, vouchers, opts.MaxUploadBytes)
	printHandler := handlers.NewPrintHandler(networks, vouchers, opts.Renderer, opts.AuthType)
	apiHandler := handlers.NewAPIHandler(networks, vouchers)
	authHandler := handlers.NewAuthHandler(opts.DB, opts.JWT)

	if opts.JWT.Secret != "" {
		r.GET("/admin/login", authHandler.LoginPage)
		r.POST("/admin/login", authHandler.Login)
		r.POST("/admin/logout", authHandler.Logout)
	}

	authed := r.Group("")
	authed.Use(adminAuthMiddleware(opts.DB, opts.JWT))

	authed.GET("/admin", networkHandler.Overview)
	authed.POST("/admin/networks", networkHandler.Create)
	authed.POST("/admin/networks/:id/delete", networkHandler.Delete)
	authed.POST("/admin/networks/:id/update", networkHandler.Update)
	authed.POST("/admin/networks/:id/toggle", networkHandler.Toggle)
	authed.GET("/admin/networks/:id/vouchers", networkHandler.Vouchers)
	authed.GET("/admin/networks/:id/qr.png", networkHandler.QRCode)
	authed.POST("/admin/networks/:id/print", printHandler.Print)
	authed.POST("/admin/upload", voucherHandler.Upload)
	authed.POST("/admin/vouchers/:id/use", voucherHandler.Use)
	authed.POST("/admin/vouchers/:id/unuse", voucherHandler.Unuse)
	authed.GET("/vouchers", voucherHandler.List)

	api := authed.Group(apiPrefix)
	api.GET("/networks", apiHandler.ListNetworks)
	api.GET("/networks/:id", apiHandler.GetNetwork)
	api.GET("/networks/:id/counts", apiHandler.NetworkCounts)
	api.GET("/networks/:id/vouchers", apiHandler.NetworkVouchers)
	api.GET("/vouchers", apiHandler.ListVouchers)
	api.POST("/vouchers/:id/use", apiHandler.UseVoucher)
	api.POST("/vouchers/:id/unuse", apiHandler.UnuseVoucher)
	api.POST("/vouchers/print", apiHandler.MarkPrinted)
}
