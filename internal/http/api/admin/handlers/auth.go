package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/security"
	"gorm.io/gorm"
)

// AdminTokenCookie carries the admin JWT for browser sessions.
const AdminTokenCookie = "voucher_admin_token"

// AuthHandler handles admin sign-in for the HTML UI.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// LoginPage renders the sign-in form.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", page(c, "Sign in"))
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		h.loginFailed(c, http.StatusBadRequest, username, "Username and password are required.")
		return
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Where("username = ?", username).First(&admin).Error; errFind != nil {
		h.loginFailed(c, http.StatusUnauthorized, username, "Invalid credentials.")
		return
	}
	if !admin.Active {
		h.loginFailed(c, http.StatusForbidden, username, "This account is disabled.")
		return
	}
	if !security.CheckPassword(admin.Password, password) {
		h.loginFailed(c, http.StatusUnauthorized, username, "Invalid credentials.")
		return
	}

	token, errToken := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Username, h.jwtCfg.Expiry)
	if errToken != nil {
		log.WithError(errToken).Error("sign admin token")
		h.loginFailed(c, http.StatusInternalServerError, username, "Sign-in is unavailable.")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminTokenCookie, token, int(h.jwtCfg.Expiry.Seconds()), "/", "", c.Request.TLS != nil, true)
	log.WithField("admin", admin.Username).Info("admin signed in")
	redirect(c, "/admin")
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminTokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	redirect(c, "/admin/login")
}

func (h *AuthHandler) loginFailed(c *gin.Context, status int, username, message string) {
	data := page(c, "Sign in")
	data["Error"] = message
	data["Username"] = username
	c.HTML(status, "login.html", data)
}
