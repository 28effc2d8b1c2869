package db

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"gorm.io/gorm"
)

// legacyVoucherColumns were added after the first release; older databases may lack them.
var legacyVoucherColumns = []struct {
	column string
	ddl    string
}{
	{"is_printed", "ALTER TABLE vouchers ADD COLUMN is_printed BOOLEAN NOT NULL DEFAULT FALSE"},
	{"printed_at", "ALTER TABLE vouchers ADD COLUMN printed_at TIMESTAMP"},
	{"seq", "ALTER TABLE vouchers ADD COLUMN seq BIGINT NOT NULL DEFAULT 0"},
}

// Migrate creates or upgrades the schema.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	upgradeLegacyVouchers(conn)

	if errMigrate := conn.AutoMigrate(&models.Network{}, &models.Voucher{}, &models.Admin{}); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}

// upgradeLegacyVouchers adds columns missing from older voucher tables.
// Failures are logged and ignored; AutoMigrate gets the final word.
func upgradeLegacyVouchers(conn *gorm.DB) {
	migrator := conn.Migrator()
	if !migrator.HasTable("vouchers") {
		return
	}
	for _, legacy := range legacyVoucherColumns {
		if migrator.HasColumn("vouchers", legacy.column) {
			continue
		}
		if errExec := conn.Exec(legacy.ddl).Error; errExec != nil {
			log.WithError(errExec).Warnf("db: legacy column upgrade skipped (column=%s)", legacy.column)
		}
	}
}
