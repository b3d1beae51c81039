package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wichananm65/visioneer-backend/internal/category"
	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/product"
	"github.com/wichananm65/visioneer-backend/internal/session"
	"github.com/wichananm65/visioneer-backend/internal/user"
)

const connectTimeout = 10 * time.Second

// Resources are the stores selected by configuration.
type Resources struct {
	Products product.Repository
	// Counts is nil when category counts come from the catalog snapshot.
	Counts   category.Repository
	Users    user.Repository
	Sessions session.Store

	closers []func(context.Context) error
}

// Close releases every connection opened by Open, newest first.
func (r *Resources) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects the catalog, user and session stores named in cfg.
// Users live in Postgres whenever DATABASE_URL is set, otherwise in memory.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Resources, error) {
	res := &Resources{}
	ok := false
	defer func() {
		if !ok {
			_ = res.Close(context.Background())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = openPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		res.closers = append(res.closers, func(context.Context) error { return db.Close() })

		users := user.NewPostgresRepository(db)
		if err := users.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("users schema: %w", err)
		}
		res.Users = users
	} else {
		res.Users = user.NewInMemoryRepository(nil)
	}

	switch cfg.Database.Driver {
	case "postgres":
		repo := product.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("product schema: %w", err)
		}
		res.Products = repo
		res.Counts = category.NewPostgresRepository(db)
	case "mongo":
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.MongoURL))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		res.closers = append(res.closers, client.Disconnect)
		if err := client.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		repo := product.NewMongoRepository(client.Database(cfg.Database.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		res.Products = repo
	default:
		res.Products = product.NewInMemoryRepository(nil)
	}

	switch cfg.Session.Store {
	case "redis":
		store := session.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.Prefix)
		res.closers = append(res.closers, func(context.Context) error { return store.Close() })
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		res.Sessions = store
	default:
		res.Sessions = session.NewMemoryStore()
	}

	usersBackend := "memory"
	if db != nil {
		usersBackend = "postgres"
	}
	log.Info("stores ready", "catalog", cfg.Database.Driver, "users", usersBackend, "sessions", cfg.Session.Store)
	ok = true
	return res, nil
}

func openPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SeedIfEmpty loads the sample catalog into an empty product store.
func SeedIfEmpty(ctx context.Context, repo product.Repository, log *logger.Logger) (bool, error) {
	existing, err := repo.List(ctx, product.Filter{Limit: 1})
	if err != nil {
		return false, fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	samples := product.SampleProducts(time.Now().UTC())
	if err := repo.Reset(ctx, samples); err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	log.Info("seeded sample catalog", "products", len(samples))
	return true, nil
}
