package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kanbanstudio/api/internal/ai"
	"kanbanstudio/api/internal/app"
	"kanbanstudio/api/internal/config"
	"kanbanstudio/api/internal/ratelimit"
	"kanbanstudio/api/internal/search"
	"kanbanstudio/api/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := store.ApplyMigrations(context.Background(), db, cfg.MigrationsDir); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	st := store.NewPostgresStore(db)

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisLimiter, err := ratelimit.NewRedis(cfg.RedisURL, cfg.ChatRateLimit, cfg.ChatRateWindow)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory rate limiter", zap.Error(err))
			limiter = ratelimit.NewMemory(cfg.ChatRateLimit, cfg.ChatRateWindow)
		} else {
			defer func() { _ = redisLimiter.Close() }()
			limiter = redisLimiter
		}
	} else {
		limiter = ratelimit.NewMemory(cfg.ChatRateLimit, cfg.ChatRateWindow)
	}

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meili.Close()
	}
	searcher := search.NewService(meili, search.NewPgFTS(db))

	var assistant app.Assistant
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("assistant unavailable", zap.Error(err))
		} else {
			assistant = client
		}
	} else {
		logger.Info("no GEMINI_API_KEY set, chat endpoints will return 503")
	}

	service := app.New(cfg, st, assistant, limiter, searcher, logger)

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = service.Bootstrap(bootCtx)
	cancel()
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewHTTPServer(service, cfg.CORSOrigin, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
