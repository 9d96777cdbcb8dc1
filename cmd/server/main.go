package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mguerin/materiguard/internal/config"
	"github.com/mguerin/materiguard/internal/db"
	"github.com/mguerin/materiguard/internal/logger"
	"github.com/mguerin/materiguard/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	conn, err := db.ConnectAndMigrate(cfg.Database, cfg.App.Migrations, zlog)
	if err != nil {
		zlog.Fatal("database setup failed", zap.Error(err))
	}

	if *migrateOnlyFlag {
		zlog.Info("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(conn); err != nil {
			zlog.Fatal("seeding failed", zap.Error(err))
		}
		zlog.Info("seeding completed")
		return
	}

	if cfg.App.Seed {
		if err := db.Seed(conn); err != nil {
			zlog.Fatal("seeding failed", zap.Error(err))
		}
	}

	handler := server.New(conn, zlog, cfg.App.BaseURL)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
	zlog.Info("server stopped")
}
