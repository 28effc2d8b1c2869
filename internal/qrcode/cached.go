package qrcode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/cache"
	"github.com/wifi-vouchers/voucher-server/internal/metrics"
)

// CachedRenderer memoizes rendered images per payload.
// Cache errors are logged and the image is rendered directly.
type CachedRenderer struct {
	renderer *Renderer
	store    cache.Store
	ttl      time.Duration
}

// NewCachedRenderer wraps renderer with store. A nil store disables caching.
func NewCachedRenderer(renderer *Renderer, store cache.Store, ttl time.Duration) *CachedRenderer {
	if renderer == nil {
		renderer = NewRenderer(DefaultScale)
	}
	return &CachedRenderer{renderer: renderer, store: store, ttl: ttl}
}

// cacheKey hashes the payload so credentials never appear in cache keys.
func cacheKey(payload string, scale int) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(scale)
}

// Render returns the PNG for payload, from cache when possible.
func (c *CachedRenderer) Render(ctx context.Context, payload string) ([]byte, error) {
	if c.store == nil {
		return c.render(payload)
	}

	key := cacheKey(payload, c.renderer.Scale())
	cached, ok, errGet := c.store.Get(ctx, key)
	switch {
	case errGet != nil:
		metrics.IncCacheLookup("error")
		log.WithError(errGet).Warn("qrcode: cache lookup failed")
	case ok:
		metrics.IncCacheLookup("hit")
		return cached, nil
	default:
		metrics.IncCacheLookup("miss")
	}

	pngBytes, errRender := c.render(payload)
	if errRender != nil {
		return nil, errRender
	}
	if errSet := c.store.Set(ctx, key, pngBytes, c.ttl); errSet != nil {
		log.WithError(errSet).Warn("qrcode: cache store failed")
	}
	return pngBytes, nil
}

// DataURI renders payload and returns it as an inline image source.
func (c *CachedRenderer) DataURI(ctx context.Context, payload string) (string, error) {
	pngBytes, err := c.Render(ctx, payload)
	if err != nil {
		return "", err
	}
	return DataURI(pngBytes), nil
}

func (c *CachedRenderer) render(payload string) ([]byte, error) {
	pngBytes, err := c.renderer.Render(payload)
	metrics.IncRender(err == nil)
	return pngBytes, err
}
