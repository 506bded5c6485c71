package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cahcet/eloquence-api/internal/api"
	"github.com/cahcet/eloquence-api/internal/cache"
	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/config"
	"github.com/cahcet/eloquence-api/internal/db"
	"github.com/cahcet/eloquence-api/internal/logger"
	"github.com/cahcet/eloquence-api/internal/repository"
	"github.com/cahcet/eloquence-api/internal/repository/dao"
	"github.com/cahcet/eloquence-api/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	postgresDB, err := db.OpenPostgres(conf.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}
	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate tables -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := catalogue.Open(conf.Catalogue.Path)
	if err != nil {
		return fmt.Errorf("failed to load event catalogue -> %w", err)
	}
	if conf.Catalogue.Watch {
		if err = events.Watch(ctx); err != nil {
			return fmt.Errorf("failed to watch event catalogue -> %w", err)
		}
	}

	if conf.Catalogue.SeedEvents {
		if err = seedEvents(ctx, postgresDB, events); err != nil {
			return fmt.Errorf("failed to seed events -> %w", err)
		}
	}

	stores := api.Stores{
		Catalogue: events,
		Blobs:     storage.NewR2(storage.NewR2Client(conf.R2), conf.R2.Bucket, conf.CDN.Host),
	}
	if conf.Redis.Addr != "" {
		redisClient := cache.NewClient(conf.Redis)
		defer redisClient.Close()
		if err = redisClient.Ping(ctx).Err(); err != nil {
			zap.L().Warn("redis unavailable, event lookups go to postgres", zap.Error(err))
		} else {
			stores.EventIDs = cache.NewEventIDCache(redisClient, conf.Redis.TTL)
		}
	}

	s := api.NewServer(conf, postgresDB, stores)
	go s.Feed.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}

func seedEvents(ctx context.Context, postgresDB *gorm.DB, events *catalogue.Store) error {
	repo := repository.NewEventRepository(dao.NewEventDAO(postgresDB), nil)
	if err := repo.EnsureEvents(ctx, events.Events()); err != nil {
		return err
	}

	zap.L().Info("events table seeded from catalogue", zap.Int("events", len(events.Events())))

	return nil
}
