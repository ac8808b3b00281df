package app

import (
	"context"
	"testing"
	"time"

	"orgchart-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SQLiteAndRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := &config.Config{
		DatabaseURL:         "sqlite:" + t.TempDir() + "/orgchart.db",
		RedisURL:            "redis://" + mr.Addr(),
		TransferExpiryHours: 24,
		SweepLockTTLSeconds: 30,
		SweepConcurrency:    2,
	}
	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close(time.Second)

	assert.NotNil(t, c.Redis)
	assert.Equal(t, 24*time.Hour, c.Manager.Expiry)
	assert.Equal(t, 2, c.Manager.SweepConcurrency)
	assert.Equal(t, 30*time.Second, c.Sweeper.LockTTL)
	assert.Same(t, c.Manager, c.Sweeper.Manager)
	assert.Same(t, c.Guard, c.Manager.Guard)

	n, err := c.Sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBuild_RequiresDatabase(t *testing.T) {
	_, err := Build(context.Background(), &config.Config{})
	assert.Error(t, err)
}
