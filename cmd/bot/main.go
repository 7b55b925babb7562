package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"contest-bot/internal/bot"
	"contest-bot/internal/common/cache"
	"contest-bot/internal/common/config"
	"contest-bot/internal/common/logger"
	channelservice "contest-bot/internal/features/channel/service"
	"contest-bot/internal/features/contest/fast"
	"contest-bot/internal/features/contest/flow"
	"contest-bot/internal/features/contest/repository"
	"contest-bot/internal/features/contest/repository/memory"
	redisrepo "contest-bot/internal/features/contest/repository/redis"
	contestservice "contest-bot/internal/features/contest/service"
	"contest-bot/internal/features/contest/winners"
	"contest-bot/internal/features/notification"
	"contest-bot/internal/features/operator"
	apphttp "contest-bot/internal/http"
	"contest-bot/internal/platform/chat"
	"contest-bot/internal/platform/redis"
	"contest-bot/internal/platform/telegram"
)

// @title           Contest Bot API
// @version         1.0
// @description     Read-only API of the Telegram contest bot.
// @BasePath        /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data

// @tag.name contests
// @tag.description Contest lookup and statistics

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{Service: "contest-bot", Debug: cfg.Debug, Format: cfg.LogFormat})
	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Int("operators", len(cfg.Telegram.AdminIDs)).
		Bool("debug", cfg.Debug).
		Msg("Starting contest bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := telegram.NewClient(cfg.Telegram.BotToken,
		telegram.WithAPIURL(cfg.Telegram.APIURL),
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.Telegram.HTTPTimeout}),
	)

	var (
		repo        repository.ContestRepository
		directory   chat.Directory = client
		redisClient *goredis.Client
	)
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		redisClient, err = redis.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr()).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		repo = redisrepo.NewRepository(redisClient, redisrepo.WithReservationTTL(cfg.Storage.ReservationTTL))
		directory = channelservice.NewCachedDirectory(client, cache.NewCacheService(redisClient, "contest-bot:cache:"), cfg.Redis.ChatCacheTTL)
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis storage initialized")
	default:
		repo = memory.NewRepository(memory.WithReservationTTL(cfg.Storage.ReservationTTL))
		logger.Warn().Msg("Using in-memory storage, contests are lost on restart")
	}

	operators := operator.NewSet(cfg.Telegram.AdminIDs)
	gate := channelservice.NewGate(directory)
	publisher := contestservice.NewPublisher(repo, client, notification.NewService(client, operators), cfg.Telegram.BotUsername)
	contests := contestservice.NewService(repo, gate, operators)
	controller := flow.NewController(
		flow.NewStore(cfg.Session.TTL),
		repo,
		gate,
		publisher,
		winners.NewSelector(directory),
		client,
		operators,
	)
	handler := bot.NewHandler(client, contests, controller, fast.NewBuilder(gate, publisher), cfg.Telegram.BotUsername)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apphttp.NewRouter(cfg, contests, redisClient),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		telegram.NewPoller(client, handler, cfg.Telegram.PollTimeout).Run(ctx)
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	wg.Wait()
	logger.Info().Msg("Contest bot stopped")
}
