package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/haoyun/navtable/internal/bitable"
	"github.com/haoyun/navtable/internal/config"
	"github.com/haoyun/navtable/internal/fieldmap"
	"github.com/haoyun/navtable/internal/httpserver"
	"github.com/haoyun/navtable/internal/httpserver/deps"
	"github.com/haoyun/navtable/internal/locator"
	"github.com/haoyun/navtable/internal/logger"
	"github.com/haoyun/navtable/internal/redis"
	"github.com/haoyun/navtable/internal/review"
	"github.com/haoyun/navtable/internal/session"
	"github.com/haoyun/navtable/internal/store"
	"github.com/haoyun/navtable/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDialTimeout,
		ReadTimeout:    cfg.RedisReadTimeout,
		WriteTimeout:   cfg.RedisWriteTimeout,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Field aliases: built-in mapping, optionally extended from a file.
	mapping := fieldmap.Default()
	if cfg.AliasFile != "" {
		m, err := fieldmap.LoadFile(cfg.AliasFile)
		if err != nil {
			loggerClient.Errorf("Failed to load alias file %s: %v", cfg.AliasFile, err)
			os.Exit(1)
		}
		mapping = m
		loggerClient.Info("field aliases extended from file",
			logger.String("file", cfg.AliasFile))
	}
	norm := fieldmap.New(mapping)

	// Table service client with the shared redis-backed token cache.
	client := bitable.NewClient(cfg.BitableBaseURL, cfg.BitableTimeout, loggerClient)
	tokens := bitable.NewTokenCache(redisClient, client.FetchTenantToken, cfg.TokenBuffer, loggerClient)
	client.SetTokenSource(tokens)

	defScope := bitable.Scope{
		Credentials: bitable.Credentials{AppID: cfg.AppID, AppSecret: cfg.AppSecret},
		AppToken:    cfg.AppToken,
		TableID:     cfg.TableID,
	}
	metaScope := bitable.Scope{
		Credentials: defScope.Credentials,
		AppToken:    cfg.MetaAppToken,
		TableID:     cfg.MetaTableID,
	}

	loc := locator.New(client, norm, defScope, metaScope, cfg.MetaPageSize, loggerClient)
	published := store.NewRecords(client, defScope, norm)

	var (
		staging        *store.Records
		rev            *review.Workflow
		stagingEnabled bool
	)
	if cfg.StagingTableID != "" {
		stagingEnabled = true
		staging = store.NewRecords(client, bitable.Scope{
			Credentials: bitable.Credentials{AppID: cfg.StagingAppID, AppSecret: cfg.StagingAppSecret},
			AppToken:    cfg.StagingAppToken,
			TableID:     cfg.StagingTableID,
		}, norm)
		rev = review.New(staging, published, cfg.GuestListLimit, cfg.DeleteRetryMax, loggerClient)
		loggerClient.Info("staging queue enabled",
			logger.String("table_id", cfg.StagingTableID))
	} else {
		loggerClient.Info("staging table not configured, guest submissions disabled")
	}

	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		TrustProxy:     cfg.TrustProxy,
		AdminPassword:  cfg.AdminPassword,
		Sessions:       sessions,
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		LoginBurst:     cfg.LoginBurst,
		LoginPerMin:    cfg.LoginPerMin,
		Bitable:        client,
		Normalizer:     norm,
		Locator:        loc,
		Staging:        staging,
		Published:      published,
		Review:         rev,
		StagingEnabled: stagingEnabled,
		GuestListLimit: cfg.GuestListLimit,
		AdminPageSize:  cfg.AdminPageSize,
		FaviconTimeout: cfg.FaviconTimeout,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting navtable v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("navtable %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ navtable stopped cleanly")
	return nil
}
