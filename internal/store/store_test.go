package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	dbutil "github.com/wifi-vouchers/voucher-server/internal/db"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:store_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createNetwork(t *testing.T, networks *NetworkStore, name, ssid string) *models.Network {
	t.Helper()

	network := NewNetwork(name, ssid, "guest1234", "")
	if errCreate := networks.Create(context.Background(), network); errCreate != nil {
		t.Fatalf("create network %s: %v", name, errCreate)
	}
	return network
}

func vouchersFor(networkID string, codes ...string) []models.Voucher {
	out := make([]models.Voucher, 0, len(codes))
	for _, code := range codes {
		v := models.Voucher{Code: code}
		if networkID != "" {
			id := networkID
			v.NetworkID = &id
		}
		out = append(out, v)
	}
	return out
}

func assertCountsInvariant(t *testing.T, counts models.VoucherCounts) {
	t.Helper()

	if counts.Used+counts.Unused != counts.Total || counts.Printed+counts.Unprinted != counts.Total {
		t.Fatalf("counts invariant broken: %+v", counts)
	}
}
