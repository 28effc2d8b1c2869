package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/wifi-vouchers/voucher-server/internal/cache"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	dbutil "github.com/wifi-vouchers/voucher-server/internal/db"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/security"
	"github.com/wifi-vouchers/voucher-server/internal/store"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:app_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestEnsureDefaultNetworkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	networks := store.NewNetworkStore(newTestDB(t))
	cfg := config.DefaultNetworkConfig{SSID: " Guest ", Password: "welcome1"}

	first, err := ensureDefaultNetwork(ctx, networks, cfg)
	if err != nil || first == nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if first.Name != config.DefaultNetworkName || first.CredentialID != "Guest" || !first.IsActive {
		t.Fatalf("unexpected network: %+v", first)
	}

	second, err := ensureDefaultNetwork(ctx, networks, cfg)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("bootstrap created a second network: %s vs %s", second.ID, first.ID)
	}
	all, err := networks.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected one network, got %d (%v)", len(all), err)
	}
}

func TestEnsureDefaultNetworkSkipsWhenUnconfigured(t *testing.T) {
	networks := store.NewNetworkStore(newTestDB(t))

	network, err := ensureDefaultNetwork(context.Background(), networks, config.DefaultNetworkConfig{SSID: "Guest"})
	if err != nil || network != nil {
		t.Fatalf("expected no network without a password, got %+v (%v)", network, err)
	}
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	if err := seedAdmin(ctx, conn, config.AuthConfig{}); err != nil {
		t.Fatalf("seed without username: %v", err)
	}
	auth := config.AuthConfig{AdminUsername: "frontdesk", AdminPassword: "pa55word"}
	if err := seedAdmin(ctx, conn, auth); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seedAdmin(ctx, conn, config.AuthConfig{AdminUsername: "frontdesk", AdminPassword: "changed"}); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var admin models.Admin
	if err := conn.Where("username = ?", "frontdesk").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !security.CheckPassword(admin.Password, "pa55word") {
		t.Fatalf("reseeding must not replace the stored password")
	}
}

func TestOpenCacheDefaultsToMemory(t *testing.T) {
	renderCache, err := openCache(context.Background(), config.CacheConfig{MaxEntries: 4})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer func() { _ = renderCache.Close() }()
	if _, ok := renderCache.(*cache.Memory); !ok {
		t.Fatalf("expected memory cache, got %T", renderCache)
	}
}

func TestOpenCacheRejectsBadRedisURL(t *testing.T) {
	if _, err := openCache(context.Background(), config.CacheConfig{RedisURL: "redis://%zz"}); err == nil {
		t.Fatalf("expected an error for a malformed redis url")
	}
}

func TestMigrateCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dsn := filepath.Join(dir, "data", "vouchers.db")
	writeConfig(t, configPath, "database:\n  dsn: "+dsn+"\n")

	if err := Migrate(context.Background(), config.AppConfig{ConfigPath: configPath}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := dbutil.Open(dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if sqlDB, errDB := conn.DB(); errDB == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if !conn.Migrator().HasTable(&models.Voucher{}) || !conn.Migrator().HasTable(&models.Network{}) {
		t.Fatalf("migrate did not create the voucher tables")
	}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
