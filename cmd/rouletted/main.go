package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/infinity-clubs/roulette-display/config"
	"github.com/infinity-clubs/roulette-display/db/postgres"
	"github.com/infinity-clubs/roulette-display/db/redis"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/events/kafka"
	"github.com/infinity-clubs/roulette-display/httpclient"
	"github.com/infinity-clubs/roulette-display/logging"
	"github.com/infinity-clubs/roulette-display/pkg/display"
	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/infinity-clubs/roulette-display/provider"
	"github.com/infinity-clubs/roulette-display/server"
	appwire "github.com/infinity-clubs/roulette-display/wire"
)

// @title           Roulette Display API
// @version         1.0
// @description     Live roulette display service for club loyalty programs

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:   "rouletted",
		Short: "Live roulette display service",
		Long: `rouletted runs the live roulette screens for club loyalty programs.

It keeps one reel animation per club, consumes authoritative spin
results from the backend, and streams frames to connected displays
over SSE and WebSocket.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the display service",
		RunE:  runServe,
	}
	serveCmd.Flags().StringP("config", "c", "config/config.yaml", "Path to config file")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// .env is optional, environment variables win either way
	_ = godotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Logging)

	ctx := context.Background()

	// Redis caches roster lookups; the service runs without it
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.New(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
	}

	// Postgres persists the win history; without it feeds start empty
	var winLog providers.WinLogProvider
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
		}
		winLog = provider.NewWinLogProvider(pool, logger)
		defer pool.Close()
	}

	prizeProvider := appwire.ProvidePrizeProvider(cfg, logger)

	var roster providers.RosterProvider
	if cfg.ExternalServices.PlayerService.BaseURL != "" {
		rosterClient := httpclient.New(httpclient.Config{
			BaseURL: cfg.ExternalServices.PlayerService.BaseURL,
			Timeout: cfg.ExternalServices.PlayerService.Timeout,
			Logger:  logger,
		})
		roster = provider.NewRosterProvider(rosterClient, redisClient, logger)
	}

	hub := display.NewHub(display.Options{
		Prizes:        prizeProvider,
		WinLog:        winLog,
		Normalizer:    events.NewNormalizer(roster, logger),
		Params:        appwire.ProvideReelParams(cfg),
		FrameInterval: cfg.Display.FrameInterval,
		FeedSeedLimit: cfg.Display.FeedSeedLimit,
		Logger:        logger,
	})

	app := server.New(server.Options{
		Config: cfg,
		Logger: logger,
		Hub:    hub,
	})

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Kafka producer")
		}
		app.SetProducer(kafkaProducer)

		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.SpinTopic(),
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			Logger:        logger,
		})
		if err := consumer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
		sub := consumer.SubscribeAll()
		go func() {
			for evt := range sub.Channel {
				var payload events.SpinPayload
				if err := json.Unmarshal(evt.Payload, &payload); err != nil {
					logger.Warn().Err(err).Str("club_id", evt.ClubID).Msg("Malformed spin payload, skipping")
					continue
				}
				if err := hub.HandleSpin(ctx, evt.ClubID, payload); err != nil {
					logger.Warn().Err(err).Str("club_id", evt.ClubID).Msg("Spin rejected")
				}
			}
		}()
		app.OnShutdown(func() {
			consumer.Unsubscribe(sub)
			_ = consumer.Stop()
			_ = kafkaProducer.Close()
		})
	}

	if redisClient != nil {
		app.OnShutdown(func() {
			_ = redisClient.Close()
		})
	}

	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterDisplayRoutes()

	logger.Info().Int("port", cfg.Server.Port).Msg("Starting roulette display service")
	return app.Run()
}
