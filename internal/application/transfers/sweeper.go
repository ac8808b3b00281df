package transfers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sweepLockKey        = "ownership_transfers:sweep_lock"
	defaultSweepLockTTL = 5 * time.Minute
)

// ErrSweepInProgress is returned when another process holds the sweep lock.
var ErrSweepInProgress = errors.New("ownership transfer sweep already running")

// releaseLock deletes the lock only if this process still owns it.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Sweeper is the entry point for the external scheduler. With Redis configured,
// concurrent schedulers on several instances run at most one sweep at a time;
// without Redis every call sweeps.
type Sweeper struct {
	Manager *Manager
	Redis   *redis.Client
	LockTTL time.Duration
	Now     func() time.Time
}

// RunOnce expires overdue transfers and returns how many were expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Redis == nil {
		return s.Manager.ExpireOverdue(ctx, now)
	}

	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = defaultSweepLockTTL
	}
	token := uuid.NewString()
	ok, err := s.Redis.SetNX(ctx, sweepLockKey, token, ttl).Result()
	if err != nil {
		return 0, err
	}
	if !ok {
		log.Info().Msg("ownership transfer sweep skipped: lock held elsewhere")
		return 0, ErrSweepInProgress
	}
	defer func() {
		if err := releaseLock.Run(context.Background(), s.Redis, []string{sweepLockKey}, token).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to release ownership transfer sweep lock")
		}
	}()
	return s.Manager.ExpireOverdue(ctx, now)
}
