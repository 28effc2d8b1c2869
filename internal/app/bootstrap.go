package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/cache"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"github.com/wifi-vouchers/voucher-server/internal/store"
	"gorm.io/gorm"
)

// seedAdmin creates the configured admin account on first start.
func seedAdmin(ctx context.Context, conn *gorm.DB, auth config.AuthConfig) error {
	username := strings.TrimSpace(auth.AdminUsername)
	if username == "" {
		return nil
	}
	created, errEnsure := store.EnsureAdmin(ctx, conn, username, auth.AdminPassword)
	if errEnsure != nil {
		return errEnsure
	}
	if created {
		log.WithField("username", username).Info("admin account created")
	}
	return nil
}

// ensureDefaultNetwork creates the configured network unless one with the same SSID exists.
// It returns nil when no default network is configured.
func ensureDefaultNetwork(ctx context.Context, networks *store.NetworkStore, cfg config.DefaultNetworkConfig) (*models.Network, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	ssid := strings.TrimSpace(cfg.SSID)
	existing, errFind := networks.FindByCredentialID(ctx, ssid)
	if errFind != nil {
		return nil, errFind
	}
	if existing != nil {
		return existing, nil
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = config.DefaultNetworkName
	}
	network := store.NewNetwork(name, ssid, cfg.Password, cfg.Description)
	if errCreate := networks.Create(ctx, network); errCreate != nil {
		return nil, errCreate
	}
	log.WithFields(log.Fields{"network": network.ID, "ssid": ssid}).Info("default network created")
	return network, nil
}

// openCache returns the QR render cache: Redis when configured, memory otherwise.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	if redisURL := strings.TrimSpace(cfg.RedisURL); redisURL != "" {
		redisCache, errRedis := cache.NewRedis(ctx, redisURL, cache.DefaultRedisPrefix)
		if errRedis != nil {
			return nil, errRedis
		}
		log.Info("qr cache: redis")
		return redisCache, nil
	}
	return cache.NewMemory(cfg.MaxEntries, cfg.TTL), nil
}
