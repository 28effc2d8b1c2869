package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/http/api/admin"
	"github.com/wifi-vouchers/voucher-server/internal/http/api/admin/handlers"
	"github.com/wifi-vouchers/voucher-server/internal/logging"
)

// EngineOptions configures the HTTP engine.
type EngineOptions struct {
	Admin     admin.Options      // Admin route dependencies.
	Templates *template.Template // Parsed HTML views.
	StaticFS  http.FileSystem    // Stylesheets and other static files.
}

// NewEngine builds the gin engine with ops endpoints and admin routes.
func NewEngine(opts EngineOptions) *gin.Engine {
	engine := gin.New()
	engine.Use(RecoveryMiddleware(), logging.GinLogger())
	if opts.Admin.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = opts.Admin.MaxUploadBytes
	}
	if opts.Templates != nil {
		engine.SetHTMLTemplate(opts.Templates)
	}
	if opts.StaticFS != nil {
		engine.StaticFS("/static", opts.StaticFS)
	}

	if opts.Admin.DB != nil {
		healthHandler := handlers.NewHealthHandler(opts.Admin.DB)
		engine.GET("/healthz", healthHandler.Healthz)
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/admin")
	})

	admin.RegisterAdminRoutes(engine, opts.Admin)

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})
	return engine
}

// RecoveryMiddleware turns panics into 500 responses and logs them through logrus.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("recovered from panic")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
