// Command seed loads the sample catalog into the configured product store.
// With -force the existing catalog is replaced.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/product"
	"github.com/wichananm65/visioneer-backend/internal/server"
)

func main() {
	force := flag.Bool("force", false, "replace existing products")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		panic(err)
	}

	err = run(cfg, log, *force)
	if err != nil {
		log.Error("seed failed", "error", err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, force bool) error {
	if cfg.Database.Driver == "memory" {
		return errors.New("seeding the memory catalog has no effect; set CATALOG_DRIVER to postgres or mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := server.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err := res.Close(context.Background()); err != nil {
			log.Error("failed to close stores", "error", err)
		}
	}()

	if force {
		samples := product.SampleProducts(time.Now().UTC())
		if err := res.Products.Reset(ctx, samples); err != nil {
			return fmt.Errorf("reset catalog: %w", err)
		}
		log.Info("catalog replaced", "products", len(samples))
		return nil
	}

	seeded, err := server.SeedIfEmpty(ctx, res.Products, log)
	if err != nil {
		return err
	}
	if !seeded {
		log.Info("catalog already has products, nothing to do")
	}
	return nil
}
