package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chatbot-backend/internal/api"
	"chatbot-backend/internal/api/router"
	"chatbot-backend/internal/config"
	"chatbot-backend/internal/database"
	"chatbot-backend/internal/events"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/queue"
	"chatbot-backend/internal/service/analytics"
	botservice "chatbot-backend/internal/service/bot"
	chatservice "chatbot-backend/internal/service/chat"
)

const prefix = "/api/public/v1"

func main() {
	cfg := config.MustLoad()
	log := sl.New(cfg.Env, cfg.LogLevel).With(sl.Module("public-server"))
	log.Info("starting",
		slog.String("env", cfg.Env),
		slog.String("listen_addr", cfg.Listen.Public),
		slog.String("redis_addr", cfg.Redis.Addr),
		sl.Secret("redis_pass", cfg.Redis.Password),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx, cfg)
	if err != nil {
		log.Error("db init failed", sl.Err(err))
		os.Exit(1)
	}

	queueManager := queue.NewRequestQueueManagerWithLogger(cfg.Queue.Size, cfg.Queue.Workers, log)
	defer queueManager.Shutdown()

	var publisher chatservice.EventPublisher
	if p := events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.ChannelPrefix); p != nil {
		defer p.Close()
		publisher = p
	} else {
		log.Info("turn events disabled, EVENTS_REDIS_URL is not set")
	}

	analyticsService := analytics.New(db)
	chatService := chatservice.New(db, analyticsService, publisher, log,
		chatservice.WithLimits(cfg.Chat.MaxMessageLength, cfg.Chat.CommitAttempts),
	)
	botService := botservice.New(db, analyticsService, cfg.PublicBaseURL)

	server := api.NewAPIServer(
		cfg.Listen.Public,
		queueManager,
		db,
		[]api.RouteRegistrar{
			router.UtilsRoutes(prefix),
			router.ChatPublicRoutes(prefix, chatService),
			router.BotPublicRoutes(prefix, botService),
		},
		api.WithLogger(log),
		api.WithAllowedOrigins(cfg.CORS.AllowedOrigins...),
	)

	if err := server.Run(ctx); err != nil {
		log.Error("server failed", sl.Err(err))
		os.Exit(1)
	}
}
