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
	internaljwt "chatbot-backend/internal/jwt"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/queue"
	"chatbot-backend/internal/service/analytics"
	botservice "chatbot-backend/internal/service/bot"
)

const prefix = "/api/client/v1"

func main() {
	cfg := config.MustLoad()
	log := sl.New(cfg.Env, cfg.LogLevel).With(sl.Module("client-server"))
	log.Info("starting",
		slog.String("env", cfg.Env),
		slog.String("listen_addr", cfg.Listen.Client),
		sl.Secret("user_secret", cfg.Auth.UserSecret),
	)

	internaljwt.SetSecret(internaljwt.RoleUser, cfg.Auth.UserSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(ctx, cfg)
	if err != nil {
		log.Error("db init failed", sl.Err(err))
		os.Exit(1)
	}

	queueManager := queue.NewRequestQueueManagerWithLogger(cfg.Queue.Size, cfg.Queue.Workers, log)
	defer queueManager.Shutdown()

	botService := botservice.New(db, analytics.New(db), cfg.PublicBaseURL)

	server := api.NewAPIServer(
		cfg.Listen.Client,
		queueManager,
		db,
		[]api.RouteRegistrar{
			router.UtilsRoutes(prefix),
			router.BotClientRoutes(prefix, botService),
		},
		api.WithLogger(log),
		api.WithAllowedOrigins(cfg.CORS.AllowedOrigins...),
	)

	if err := server.Run(ctx); err != nil {
		log.Error("server failed", sl.Err(err))
		os.Exit(1)
	}
}
