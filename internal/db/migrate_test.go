package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openMemorySQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:migrate_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		t.Fatalf("sql db: %v", errDB)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestMigrateCreatesVoucherSchema(t *testing.T) {
	conn := openMemorySQLite(t)

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"networks", "vouchers", "admins"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"code", "network_id", "is_used", "used_at", "is_printed", "printed_at", "seq"} {
		if !conn.Migrator().HasColumn("vouchers", column) {
			t.Fatalf("vouchers missing column %s", column)
		}
	}
	for _, index := range []string{"idx_vouchers_network_id", "idx_vouchers_is_used", "idx_vouchers_is_printed"} {
		if !conn.Migrator().HasIndex("vouchers", index) {
			t.Fatalf("vouchers missing index %s", index)
		}
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn := openMemorySQLite(t)

	for i := 0; i < 2; i++ {
		if errMigrate := Migrate(conn); errMigrate != nil {
			t.Fatalf("migrate run %d: %v", i+1, errMigrate)
		}
	}
}

func TestUpgradeLegacyVouchersAddsPrintColumns(t *testing.T) {
	conn := openMemorySQLite(t)

	legacy := `CREATE TABLE vouchers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		network_id TEXT,
		created_at DATETIME NOT NULL,
		is_used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at DATETIME
	)`
	if errExec := conn.Exec(legacy).Error; errExec != nil {
		t.Fatalf("create legacy table: %v", errExec)
	}
	if errExec := conn.Exec("INSERT INTO vouchers (id, code, created_at) VALUES ('v1', 'OLD-1', CURRENT_TIMESTAMP)").Error; errExec != nil {
		t.Fatalf("seed legacy row: %v", errExec)
	}

	upgradeLegacyVouchers(conn)

	for _, column := range []string{"is_printed", "printed_at", "seq"} {
		if !conn.Migrator().HasColumn("vouchers", column) {
			t.Fatalf("vouchers missing column %s after upgrade", column)
		}
	}

	var printed bool
	if errScan := conn.Raw("SELECT is_printed FROM vouchers WHERE id = 'v1'").Scan(&printed).Error; errScan != nil {
		t.Fatalf("read legacy row: %v", errScan)
	}
	if printed {
		t.Fatalf("legacy voucher should default to unprinted")
	}

	// a second pass finds nothing to add
	upgradeLegacyVouchers(conn)
}

func TestUpgradeLegacyVouchersWithoutTable(t *testing.T) {
	conn := openMemorySQLite(t)

	upgradeLegacyVouchers(conn)
	if conn.Migrator().HasTable("vouchers") {
		t.Fatalf("upgrade should not create the vouchers table")
	}
}
