package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(body), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:3000" {
		t.Fatalf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Database.DSN != "data/vouchers.db" {
		t.Fatalf("dsn = %s", cfg.Database.DSN)
	}
	if cfg.Cards.AuthType != "WPA" || cfg.Import.MaxUploadBytes != 1<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.Enabled() {
		t.Fatalf("auth should be disabled by default")
	}
	if cfg.DefaultNetwork.Configured() {
		t.Fatalf("default network should not be configured")
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  dsn: postgres://localhost/vouchers
log:
  format: JSON
auth:
  jwt_secret: s3cret
  token_ttl: 30m
cache:
  redis_url: redis://localhost:6379/0
  ttl: 1h
cards:
  auth_type: wpa
default_network:
  ssid: Lobby-WiFi
  password: guest1234
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Database.DSN != "postgres://localhost/vouchers" {
		t.Fatalf("dsn = %s", cfg.Database.DSN)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if !cfg.Auth.Enabled() || cfg.JWT().Expiry != 30*time.Minute || cfg.JWT().Secret != "s3cret" {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Cache.RedisURL == "" || cfg.Cache.TTL != time.Hour {
		t.Fatalf("cache = %+v", cfg.Cache)
	}
	if cfg.Cards.AuthType != "WPA" {
		t.Fatalf("auth type = %s", cfg.Cards.AuthType)
	}
	if !cfg.DefaultNetwork.Configured() || cfg.DefaultNetwork.Name != DefaultNetworkName {
		t.Fatalf("default network = %+v", cfg.DefaultNetwork)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"port":      "server:\n  port: 70000\n",
		"format":    "log:\n  format: xml\n",
		"auth type": "cards:\n  auth_type: WPA3-ENT\n",
		"open card": "cards:\n  auth_type: nopass\n",
		"admin":     "auth:\n  admin_username: root\n",
		"yaml":      "server: [unterminated\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDatabaseDSN(t *testing.T) {
	dsn, err := LoadDatabaseDSN(writeConfig(t, "database:\n  dsn: \" custom.db \"\n"))
	if err != nil {
		t.Fatalf("load dsn: %v", err)
	}
	if dsn != "custom.db" {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	wd, errWd := os.Getwd()
	if errWd != nil {
		t.Fatalf("getwd: %v", errWd)
	}
	if errChdir := os.Chdir(dir); errChdir != nil {
		t.Fatalf("chdir: %v", errChdir)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(ConfigPathEnv, "/etc/vouchers/config.yaml")

	if got := ResolveConfigPath(" explicit.yaml "); got != "explicit.yaml" {
		t.Fatalf("explicit = %s", got)
	}
	if got := ResolveConfigPath(""); got != "/etc/vouchers/config.yaml" {
		t.Fatalf("env fallback = %s", got)
	}

	if errWrite := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("{}\n"), 0o600); errWrite != nil {
		t.Fatalf("write local config: %v", errWrite)
	}
	if got := ResolveConfigPath(""); got != DefaultConfigFile {
		t.Fatalf("local file = %s", got)
	}

	t.Setenv(ConfigPathEnv, "")
	if errRemove := os.Remove(filepath.Join(dir, DefaultConfigFile)); errRemove != nil {
		t.Fatalf("remove: %v", errRemove)
	}
	if got := ResolveConfigPath(""); got != DefaultConfigFile {
		t.Fatalf("default = %s", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(AppConfig{Host: "0.0.0.0", Port: 9000, SSID: " Cafe ", Password: "latte"})
	if cfg.Server.Addr() != "0.0.0.0:9000" {
		t.Fatalf("addr = %s", cfg.Server.Addr())
	}
	if cfg.DefaultNetwork.SSID != "Cafe" || cfg.DefaultNetwork.Password != "latte" || !cfg.DefaultNetwork.Configured() {
		t.Fatalf("default network = %+v", cfg.DefaultNetwork)
	}

	untouched := Default()
	untouched.ApplyOverrides(AppConfig{})
	if untouched.Server.Addr() != "127.0.0.1:3000" {
		t.Fatalf("empty overrides changed addr to %s", untouched.Server.Addr())
	}
}
