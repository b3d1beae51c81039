package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/room"
	"github.com/wichananm65/visioneer-backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		panic(err)
	}

	err = run(cfg, log)
	if err != nil {
		log.Error("server exited", "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run returns only after every store opened here has been closed.
func run(cfg *config.Config, log *logger.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		// tokens will not survive a restart
		cfg.Auth.JWTSecret = uuid.NewString()
		log.Warn("JWT_SECRET is not set, using a random secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := server.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err := res.Close(context.Background()); err != nil {
			log.Error("failed to close stores", "error", err)
		}
	}()

	if cfg.Dev.SeedSampleData {
		if _, err := server.SeedIfEmpty(ctx, res.Products, log); err != nil {
			log.Error("seeding failed", "error", err)
		}
	}

	uploads, err := room.NewStore(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("prepare uploads: %w", err)
	}

	app := server.New(cfg, res, llm.NewClient(cfg.OpenAI, log), uploads, log)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
