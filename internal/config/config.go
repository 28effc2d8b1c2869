// Package config loads the voucher server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up in the working directory.
	DefaultConfigFile = "config.yaml"
	// ConfigPathEnv names the environment variable holding a config path.
	ConfigPathEnv = "VOUCHER_CONFIG_PATH"
	// DefaultNetworkName is used for the network created from CLI credentials.
	DefaultNetworkName = "Default Network"
)

// AppConfig carries command line inputs.
type AppConfig struct {
	ConfigPath string // explicit -config path
	Host       string // -host override
	Port       int    // -port override
	SSID       string // -ssid for the default network
	Password   string // -password for the default network
}

// Config is the full file-backed configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Log            LogConfig            `yaml:"log"`
	Auth           AuthConfig           `yaml:"auth"`
	Cache          CacheConfig          `yaml:"cache"`
	Cards          CardsConfig          `yaml:"cards"`
	Import         ImportConfig         `yaml:"import"`
	DefaultNetwork DefaultNetworkConfig `yaml:"default_network"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig selects the database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // file path or sqlite: URL, postgres:// for Postgres
}

// LogConfig controls log output.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig enables admin login when JWTSecret is set.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
}

// Enabled reports whether the admin UI requires login.
func (a AuthConfig) Enabled() bool { return strings.TrimSpace(a.JWTSecret) != "" }

// CacheConfig selects the render cache backend.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url"` // empty keeps the cache in memory
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// CardsConfig shapes the printed cards.
type CardsConfig struct {
	AuthType string `yaml:"auth_type"`
}

// ImportConfig limits uploads.
type ImportConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// DefaultNetworkConfig describes a network bootstrapped at startup.
type DefaultNetworkConfig struct {
	Name        string `yaml:"name"`
	SSID        string `yaml:"ssid"`
	Password    string `yaml:"password"`
	Description string `yaml:"description"`
}

// Configured reports whether enough was given to create the network.
func (d DefaultNetworkConfig) Configured() bool {
	return strings.TrimSpace(d.SSID) != "" && d.Password != ""
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// JWT returns the token signing settings.
func (c *Config) JWT() JWTConfig {
	return JWTConfig{Secret: c.Auth.JWTSecret, Expiry: c.Auth.TokenTTL}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 3000},
		Database: DatabaseConfig{DSN: "data/vouchers.db"},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Auth:   AuthConfig{TokenTTL: 12 * time.Hour},
		Cache:  CacheConfig{TTL: 24 * time.Hour, MaxEntries: 512},
		Cards:  CardsConfig{AuthType: "WPA"},
		Import: ImportConfig{MaxUploadBytes: 1 << 20},
		DefaultNetwork: DefaultNetworkConfig{
			Name: DefaultNetworkName,
		},
	}
}

// ResolveConfigPath picks the config file: explicit path, then ./config.yaml, then $VOUCHER_CONFIG_PATH.
func ResolveConfigPath(explicit string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	if ConfigExists(DefaultConfigFile) {
		return DefaultConfigFile
	}
	if env := strings.TrimSpace(os.Getenv(ConfigPathEnv)); env != "" {
		return env
	}
	return DefaultConfigFile
}

// ConfigExists reports whether path names a regular file.
func ConfigExists(path string) bool {
	info, errStat := os.Stat(path)
	return errStat == nil && !info.IsDir()
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, errRead := os.ReadFile(path)
	if errRead != nil {
		if errors.Is(errRead, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errUnmarshal := yaml.Unmarshal(raw, cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}
	cfg.normalize()
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

// LoadDatabaseDSN returns only the database DSN from path.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN, nil
}

// normalize fills blanks left by a partial file.
func (c *Config) normalize() {
	def := Default()
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = def.Log.Level
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = def.Auth.TokenTTL
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = def.Cache.MaxEntries
	}
	c.Cards.AuthType = strings.ToUpper(strings.TrimSpace(c.Cards.AuthType))
	if c.Cards.AuthType == "" {
		c.Cards.AuthType = def.Cards.AuthType
	}
	if c.Import.MaxUploadBytes <= 0 {
		c.Import.MaxUploadBytes = def.Import.MaxUploadBytes
	}
	if strings.TrimSpace(c.DefaultNetwork.Name) == "" {
		c.DefaultNetwork.Name = def.DefaultNetwork.Name
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	// every network carries a passphrase, so open (nopass) cards are not offered
	switch c.Cards.AuthType {
	case "WPA", "WEP":
	default:
		return fmt.Errorf("config: cards.auth_type %q is not supported", c.Cards.AuthType)
	}
	if c.Auth.AdminUsername != "" && c.Auth.AdminPassword == "" {
		return fmt.Errorf("config: auth.admin_password is required with auth.admin_username")
	}
	return nil
}

// ApplyOverrides layers command line values over the file configuration.
func (c *Config) ApplyOverrides(app AppConfig) {
	if host := strings.TrimSpace(app.Host); host != "" {
		c.Server.Host = host
	}
	if app.Port > 0 {
		c.Server.Port = app.Port
	}
	if ssid := strings.TrimSpace(app.SSID); ssid != "" {
		c.DefaultNetwork.SSID = ssid
	}
	if app.Password != "" {
		c.DefaultNetwork.Password = app.Password
	}
}
