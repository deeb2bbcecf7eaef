// Package wire holds the provider functions and sets used to assemble
// the display service.
package wire

import (
	"context"

	"github.com/google/wire"
	"github.com/infinity-clubs/roulette-display/config"
	"github.com/infinity-clubs/roulette-display/db/postgres"
	"github.com/infinity-clubs/roulette-display/db/redis"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/httpclient"
	"github.com/infinity-clubs/roulette-display/logging"
	"github.com/infinity-clubs/roulette-display/pkg/display"
	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/infinity-clubs/roulette-display/provider"
	"github.com/infinity-clubs/roulette-display/reel"
	"github.com/infinity-clubs/roulette-display/server"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvidePostgresPool provides a Postgres connection pool
func ProvidePostgresPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return postgres.New(ctx, cfg.Postgres)
}

// ProvidePrizeProvider provides the prize catalog provider
func ProvidePrizeProvider(cfg *config.Config, logger zerolog.Logger) providers.PrizeProvider {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.ExternalServices.PrizeService.BaseURL,
		Timeout: cfg.ExternalServices.PrizeService.Timeout,
		Logger:  logger,
	})
	return provider.NewPrizeProvider(client, logger)
}

// ProvideRosterProvider provides the player roster provider
func ProvideRosterProvider(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) providers.RosterProvider {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.ExternalServices.PlayerService.BaseURL,
		Timeout: cfg.ExternalServices.PlayerService.Timeout,
		Logger:  logger,
	})
	return provider.NewRosterProvider(client, redisClient, logger)
}

// ProvideWinLogProvider provides the win history provider
func ProvideWinLogProvider(pool *pgxpool.Pool, logger zerolog.Logger) providers.WinLogProvider {
	return provider.NewWinLogProvider(pool, logger)
}

// ProvideReelParams maps the reel configuration to animation parameters
func ProvideReelParams(cfg *config.Config) reel.Params {
	r := cfg.Display.Reel
	return reel.Params{
		ItemWidth:          r.ItemWidth,
		PaddingLeft:        r.PaddingLeft,
		ViewportWidth:      r.ViewportWidth,
		IdleSpeed:          r.IdleSpeed,
		MaxFrameUnits:      r.MaxFrameUnits,
		SpinDuration:       r.SpinDuration,
		ExtraRotations:     r.ExtraRotations,
		EasingExponent:     r.EasingExponent,
		MinCopies:          r.MinCopies,
		ReplenishThreshold: r.ReplenishThreshold,
		ReplenishCount:     r.ReplenishCount,
		ResultTimeout:      cfg.Display.ResultTimeout,
		QueueCap:           cfg.Display.QueueCap,
	}
}

// ProvideNormalizer provides the spin payload normalizer
func ProvideNormalizer(roster providers.RosterProvider, logger zerolog.Logger) *events.Normalizer {
	return events.NewNormalizer(roster, logger)
}

// ProvideHub provides the display hub
func ProvideHub(
	cfg *config.Config,
	prizes providers.PrizeProvider,
	winLog providers.WinLogProvider,
	normalizer *events.Normalizer,
	params reel.Params,
	logger zerolog.Logger,
) *display.Hub {
	return display.NewHub(display.Options{
		Prizes:        prizes,
		WinLog:        winLog,
		Normalizer:    normalizer,
		Params:        params,
		FrameInterval: cfg.Display.FrameInterval,
		FeedSeedLimit: cfg.Display.FeedSeedLimit,
		Logger:        logger,
	})
}

// ProvideServerOptions provides server options
func ProvideServerOptions(cfg *config.Config, logger zerolog.Logger, hub *display.Hub) server.Options {
	return server.Options{
		Config: cfg,
		Logger: logger,
		Hub:    hub,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// StorageSet is the wire provider set for Redis and Postgres
var StorageSet = wire.NewSet(
	ProvideRedisClient,
	ProvidePostgresPool,
)

// ProviderSet is the wire provider set for external data providers
var ProviderSet = wire.NewSet(
	ProvidePrizeProvider,
	ProvideRosterProvider,
	ProvideWinLogProvider,
)

// DisplaySet is the wire provider set for the display engine
var DisplaySet = wire.NewSet(
	ProvideReelParams,
	ProvideNormalizer,
	ProvideHub,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// FullSet includes all providers
var FullSet = wire.NewSet(
	LoggingSet,
	StorageSet,
	ProviderSet,
	DisplaySet,
	ServerSet,
)
