package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/lms-api/pkg/config"
)

// Open builds the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Driver {
	case "", config.StoreDriverMemory:
		return NewMemoryBackend(), nil
	case config.StoreDriverBolt:
		return OpenBolt(cfg.Store.BoltPath)
	case config.StoreDriverRedis:
		client, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(client), nil
	case config.StoreDriverPostgres:
		db, err := newPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		backend := NewPostgresBackend(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func newPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
