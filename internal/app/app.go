package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/config"
	"github.com/wifi-vouchers/voucher-server/internal/db"
	httpapi "github.com/wifi-vouchers/voucher-server/internal/http"
	"github.com/wifi-vouchers/voucher-server/internal/http/api/admin"
	"github.com/wifi-vouchers/voucher-server/internal/logging"
	"github.com/wifi-vouchers/voucher-server/internal/metrics"
	"github.com/wifi-vouchers/voucher-server/internal/qrcode"
	"github.com/wifi-vouchers/voucher-server/internal/store"
	"github.com/wifi-vouchers/voucher-server/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if sqlDB, errDB := conn.DB(); errDB == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	log.Infof("database migrated (%s)", db.DialectName(conn))
	return nil
}

// RunServer boots the voucher server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	appCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	appCfg.ApplyOverrides(cfg)
	if errValidate := appCfg.Validate(); errValidate != nil {
		return errValidate
	}

	logCloser, err := logging.Setup(appCfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	if !config.ConfigExists(configPath) {
		log.Warnf("config file %s not found, using defaults", configPath)
	}

	webBundle, errLoad := web.Load()
	if errLoad != nil {
		return errLoad
	}

	conn, err := db.Open(appCfg.Database.DSN)
	if err != nil {
		return err
	}
	if sqlDB, errDB := conn.DB(); errDB == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	if errSeed := seedAdmin(ctx, conn, appCfg.Auth); errSeed != nil {
		return errSeed
	}
	if !appCfg.Auth.Enabled() {
		log.Warn("auth.jwt_secret is empty; the admin UI is open to anyone who can reach it")
	}

	networks := store.NewNetworkStore(conn)
	vouchers := store.NewVoucherStore(conn)
	if _, errBootstrap := ensureDefaultNetwork(ctx, networks, appCfg.DefaultNetwork); errBootstrap != nil {
		return errBootstrap
	}

	renderCache, err := openCache(ctx, appCfg.Cache)
	if err != nil {
		return err
	}
	defer func() { _ = renderCache.Close() }()
	renderer := qrcode.NewCachedRenderer(qrcode.NewRenderer(qrcode.DefaultScale), renderCache, appCfg.Cache.TTL)

	metrics.MustRegister()

	engine := httpapi.NewEngine(httpapi.EngineOptions{
		Admin: admin.Options{
			DB:             conn,
			Networks:       networks,
			Vouchers:       vouchers,
			Renderer:       renderer,
			JWT:            appCfg.JWT(),
			AuthType:       appCfg.Cards.AuthType,
			MaxUploadBytes: appCfg.Import.MaxUploadBytes,
		},
		Templates: webBundle.Templates,
		StaticFS:  webBundle.StaticFS,
	})

	server := &http.Server{
		Addr:              appCfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errServe := make(chan error, 1)
	go func() {
		log.Infof("voucher server listening on http://%s (config=%s)", server.Addr, configPath)
		if errListen := server.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
			errServe <- errListen
		}
		close(errServe)
	}()

	select {
	case errListen, ok := <-errServe:
		if ok && errListen != nil {
			return fmt.Errorf("http server: %w", errListen)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down voucher server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("http server shutdown: %w", errShutdown)
	}
	return nil
}
