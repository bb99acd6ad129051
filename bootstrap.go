package main

import (
	"context"
	"errors"
	"fmt"

	"shoplab/internal/config"
	"shoplab/internal/database"
	"shoplab/internal/handlers"
	"shoplab/internal/logger"
	"shoplab/internal/repositories"
	"shoplab/internal/services"
	"shoplab/pkg/rabbitmq"
	"shoplab/pkg/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the external connections of a running server.
type Dependencies struct {
	DB       *gorm.DB
	Redis    *redis.Client
	MQ       *rabbitmq.Client
	Storage  *storage.S3Storage
	Services handlers.Services

	closers []func() error
}

// Bootstrap opens every configured backend and wires the services. Redis,
// RabbitMQ and object storage are optional; without Redis carts live in memory.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	db, err := database.Open(cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	deps.DB = db
	deps.closers = append(deps.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	var carts repositories.CartStore
	if cfg.Redis.Enabled {
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Redis = client
		deps.closers = append(deps.closers, client.Close)
		carts = repositories.NewRedisCartStore(client, cfg.Cart.TTL)
		log.Info("Using Redis cart store", zap.String("addr", cfg.Redis.Addr))
	} else {
		carts = repositories.NewMemoryCartStore(cfg.Cart.TTL)
		log.Warn("Redis disabled, carts are kept in memory")
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, log)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.MQ = client
		deps.closers = append(deps.closers, client.Close)
		publisher = client
	}

	var images services.ImageStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.New(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, log)
		if err != nil {
			deps.Close()
			return nil, err
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		deps.Storage = s3Storage
		images = s3Storage
	}

	deps.Services = NewServices(cfg, db, carts, publisher, images, log)
	return deps, nil
}

// NewServices wires the business services over the given backends. publisher
// and images may be nil.
func NewServices(
	cfg *config.Config,
	db *gorm.DB,
	carts repositories.CartStore,
	publisher services.EventPublisher,
	images services.ImageStorage,
	log *zap.Logger,
) handlers.Services {
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	sessionRepo := repositories.NewGORMSessionRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	return handlers.Services{
		Products:  services.NewProductService(productRepo, images),
		Carts:     services.NewCartService(carts, productRepo),
		Orders:    services.NewOrderService(orderRepo, productRepo, carts, txManager, publisher, log.Named("orders")),
		Auth:      services.NewAuthService(userRepo, sessionRepo, cfg.JWT, log.Named("auth")),
		Dashboard: services.NewDashboardService(productRepo, orderRepo, userRepo),
	}
}

// Close releases every opened connection in reverse order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to close dependencies: %w", errors.Join(errs...))
	}
	return nil
}
