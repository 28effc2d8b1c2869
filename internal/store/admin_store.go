package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dbutil "github.com/wifi-vouchers/voucher-server/internal/db"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/security"
	"gorm.io/gorm"
)

// EnsureAdmin creates an active admin with the given credentials unless the username exists.
// It reports whether a new admin was created.
func EnsureAdmin(ctx context.Context, db *gorm.DB, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, fmt.Errorf("%w: admin username and password are required", ErrInvalid)
	}

	var existing models.Admin
	errFind := db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error
	if errFind == nil {
		return false, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return false, dataAccess("find admin", errFind)
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return false, fmt.Errorf("hash admin password: %w", errHash)
	}
	admin := models.Admin{Username: username, Password: hash, Active: true}
	if errCreate := db.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			return false, nil
		}
		return false, dataAccess("create admin", errCreate)
	}
	return true, nil
}
