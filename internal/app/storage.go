package app

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/config"
	"github.com/fjod/go_cart/mobile-cart/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenRepository connects the configured cart backend. The returned close
// func releases its connections; it is never nil. The memory backend
// returns a nil repository.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cart.Repository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("cart kept in memory only")
		return nil, noop, nil

	case config.BackendFile:
		logger.Info("cart stored in file", zap.String("path", cfg.FilePath))
		return repository.NewFileRepository(cfg.FilePath), noop, nil

	case config.BackendSQLite:
		repo, err := repository.NewSQLiteRepository(cfg.SQLitePath, cfg.CartKey)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("cart stored in sqlite", zap.String("path", cfg.SQLitePath))
		return repo, repo.Close, nil

	case config.BackendPostgres:
		repo, err := repository.NewPostgresRepository(&repository.Credentials{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.Name,
		}, cfg.CartKey)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("cart stored in postgres", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
		return repo, repo.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		logger.Info("cart stored in redis", zap.String("addr", cfg.RedisAddr))
		return repository.NewRedisRepository(client, cfg.CartKey, cfg.CartTTL), client.Close, nil

	case config.BackendMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db, cfg.CartKey)
		if err := repo.CreateIndexes(ctx); err != nil {
			logger.Warn("failed to create cart indexes", zap.Error(err))
		}
		logger.Info("cart stored in mongodb", zap.String("db", cfg.MongoDB))
		return repo, func() error { return db.Client().Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("%w %q", config.ErrUnknownBackend, cfg.Backend)
}
