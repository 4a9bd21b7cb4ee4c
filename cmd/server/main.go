package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/anonchat/internal/app"
	"github.com/oggyb/anonchat/internal/bot"
	"github.com/oggyb/anonchat/internal/cache"
	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/db"
	"github.com/oggyb/anonchat/internal/logger"
	"github.com/oggyb/anonchat/internal/server"
	"github.com/oggyb/anonchat/internal/service/match"
	"github.com/oggyb/anonchat/internal/worker"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	if !cfg.IsProduction() && cfg.App.SeedDemo {
		if err := db.SeedDemoProfiles(database, 20); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	appCtx := app.New(cfg, database, redisCache, log)
	if err := appCtx.Load(ctx); err != nil {
		log.Error("failed to load state", "err", err)
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("failed to init telegram bot", "err", err)
		return
	}
	botAPI.Debug = cfg.Telegram.Debug
	if cfg.Telegram.Username == "" {
		cfg.Telegram.Username = botAPI.Self.UserName
	}
	handler := bot.NewHandler(botAPI, appCtx)

	// Background workers
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		appCtx.Archiver.Run(ctx)
	}()
	sweeper := worker.NewSweeper(appCtx.Sessions, handler, cfg.Match.InactivityTimeout, log.With("worker", "sweeper"))
	go sweeper.Run(ctx, cfg.Match.SweepInterval)

	// gRPC
	grpcServer := server.NewGRPCServer(cfg, match.AdminMethods, match.NewRegistrar(appCtx))
	go func() {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		if err := server.StartGRPCServer(ctx, cfg, grpcServer); err != nil {
			log.Error("gRPC server stopped", "err", err)
			stop()
		}
	}()

	// Health / stats HTTP
	httpServer := server.NewHTTPServer(appCtx)
	go func() {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
		if err := httpServer.Listen(cfg.HTTP.Addr); err != nil {
			log.Error("HTTP server stopped", "err", err)
			stop()
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := botAPI.GetUpdatesChan(u)
	log.Info("bot started", "username", botAPI.Self.UserName)

	handler.Run(ctx, updates)

	log.Info("shutting down")
	botAPI.StopReceivingUpdates()
	if err := httpServer.Shutdown(); err != nil {
		log.Warn("HTTP shutdown", "err", err)
	}
	// let the archiver flush sessions closed during shutdown
	workers.Wait()
}
