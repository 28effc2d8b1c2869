package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	"github.com/wifi-vouchers/voucher-server/internal/http/api/admin/handlers"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/security"
	"gorm.io/gorm"
)

// adminAuthMiddleware validates admin JWTs from the session cookie or a bearer header.
// With no secret configured every request passes.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	enabled := strings.TrimSpace(jwtCfg.Secret) != ""

	return func(c *gin.Context) {
		c.Set(handlers.ContextAuthEnabled, enabled)
		if !enabled {
			c.Next()
			return
		}

		token := readToken(c)
		if token == "" {
			deny(c, "missing token")
			return
		}
		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			deny(c, "invalid token")
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).Select("id", "active").First(&admin, claims.AdminID).Error; errFind != nil {
			deny(c, "admin not found")
			return
		}
		if !admin.Active {
			deny(c, "admin disabled")
			return
		}

		c.Set(handlers.ContextAdminID, admin.ID)
		c.Next()
	}
}

// readToken prefers the Authorization header over the session cookie.
func readToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return ""
		}
		return strings.TrimSpace(token)
	}
	cookie, errCookie := c.Cookie(handlers.AdminTokenCookie)
	if errCookie != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

// deny rejects API calls with 401 and sends browsers to the sign-in page.
func deny(c *gin.Context, reason string) {
	if isAPIRoute(c.Request.URL.Path) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/login")
	c.Abort()
}

// isAPIRoute reports whether a path targets the JSON API.
func isAPIRoute(requestPath string) bool {
	return requestPath == apiPrefix || strings.HasPrefix(requestPath, apiPrefix+"/")
}
