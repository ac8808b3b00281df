package app

import (
	"context"
	"errors"
	"time"

	"orgchart-backend/internal/application/membership"
	"orgchart-backend/internal/application/notifications"
	policies "orgchart-backend/internal/application/policies/transfers"
	"orgchart-backend/internal/application/transfers"
	"orgchart-backend/internal/application/transfers/metrics"
	"orgchart-backend/internal/config"
	"orgchart-backend/internal/infrastructure/cache"
	"orgchart-backend/internal/infrastructure/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Container holds the wired ownership transfer core and its infrastructure.
// Both the API server and the expiration command build one.
type Container struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Members    *membership.GormStore
	Guard      *policies.Guard
	Dispatcher *notifications.Dispatcher
	Manager    *transfers.Manager
	Sweeper    *transfers.Sweeper
}

// Build opens the database (and Redis when configured) and wires the core.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	rdb, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: expiration sweeps run without a distributed lock")
	}

	notifier := &notifications.BrevoNotifier{
		APIKey:   cfg.SendinblueAPIKey,
		MailFrom: cfg.MailFrom,
		BaseURL:  cfg.AppBaseURL,
		Users:    &notifications.GormUserDirectory{DB: db},
	}
	c := Wire(db, rdb, notifier)
	c.Manager.Expiry = cfg.TransferExpiry()
	c.Manager.SweepConcurrency = cfg.SweepConcurrency
	c.Sweeper.LockTTL = cfg.SweepLockTTL()
	return c, nil
}

// Wire assembles a Container over already-open connections. rdb may be nil.
func Wire(db *gorm.DB, rdb *redis.Client, notifier notifications.Notifier) *Container {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	members := membership.NewGormStore(db)
	dispatcher := notifications.NewDispatcher(notifier)
	manager := transfers.NewManager(db, members, dispatcher, metrics.New(registry))
	return &Container{
		DB:         db,
		Redis:      rdb,
		Registry:   registry,
		Members:    members,
		Guard:      manager.Guard,
		Dispatcher: dispatcher,
		Manager:    manager,
		Sweeper:    &transfers.Sweeper{Manager: manager, Redis: rdb},
	}
}

// Close waits for in-flight notifications, then releases connections.
func (c *Container) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.Dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Warn().Msg("timed out waiting for transfer notifications to finish")
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
