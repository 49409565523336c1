package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/api"
	"github.com/hl7-message-forge/internal/clinical"
	"github.com/hl7-message-forge/internal/config"
	"github.com/hl7-message-forge/internal/database"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/internal/schema"
	"github.com/hl7-message-forge/internal/service"
	"github.com/hl7-message-forge/internal/setup"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, cleanup, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build schema provider")
	}
	defer cleanup()

	composer := service.NewDefaultComposer(provider, logger)
	bundles := clinical.NewGenerator(logger)
	server := api.NewServer(configManager, composer, bundles, provider, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting message generation server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func newLogger(cfg *config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// buildProvider assembles the schema source: the embedded pack by
// default, or a sqlite catalog (seeded from the pack on first run)
// when one is configured, optionally fronted by the caching tier.
func buildProvider(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.SchemaProvider, func(), error) {
	embedded := schema.NewEmbeddedStore(logger)
	cleanup := func() {}

	if cfg.Database.Path == "" {
		return embedded, cleanup, nil
	}

	db, err := database.NewConnection(ctx, database.Config{Path: cfg.Database.Path}, logger)
	if err != nil {
		return nil, cleanup, err
	}
	cleanup = func() { _ = db.Close() }

	runner, err := database.NewMigrationRunner(cfg.Database.Path, cfg.Database.MigrationsPath, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if err := runner.Up(); err != nil {
		return nil, cleanup, err
	}
	_ = runner.Close()

	var count int
	if err := db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM trigger_events`).Scan(&count); err != nil {
		return nil, cleanup, err
	}
	if count == 0 {
		logger.Info("Empty definition catalog, importing embedded pack")
		if err := setup.NewLoader(embedded, db.Conn, logger).Load(ctx); err != nil {
			return nil, cleanup, err
		}
	}

	source := schema.NewSQLiteStore(db.Conn, logger)

	cacheCfg := schema.CachedProviderConfig{
		MaxEntries: cfg.Cache.MaxEntries,
		RedisTTL:   cfg.Cache.RedisTTL,
	}
	if cfg.Cache.UseRedis {
		redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		cacheCfg.RedisClient = redis.NewClient(redisOpts)
	}

	cached, err := schema.NewCachedProvider(source, cacheCfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	return cached, cleanup, nil
}
