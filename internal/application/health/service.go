package health

import (
	"context"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// OverdueCounter reports pending transfers past their deadline. A growing
// number means the expiration scheduler is not running.
type OverdueCounter interface {
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Dependencies map[string]DepStatus `json:"dependencies"`
	Transfers    TransferInfo         `json:"transfers"`
}

type RuntimeInfo struct {
	Goroutines int    `json:"goroutines"`
	HeapMB     int    `json:"heapMb"`
	Platform   string `json:"platform"`
	GoVersion  string `json:"goVersion"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

type TransferInfo struct {
	OverduePending *int64 `json:"overduePending"`
}

// CollectHealth pings the database and Redis and counts overdue transfers.
// Redis is optional: "disabled" does not degrade the overall status.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, overdue OverdueCounter) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if db != nil {
		start := time.Now()
		if err := db.PingContext(ctx); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disabled"
	var redisPingMs *int64
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	if overdue != nil && dbStatus == "connected" {
		if n, err := overdue.CountOverdue(ctx, time.Now().UTC()); err == nil {
			result.Transfers.OverduePending = &n
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	result.Runtime = RuntimeInfo{
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     int(m.HeapInuse / 1024 / 1024),
		Platform:   runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:  runtime.Version(),
	}

	if dbStatus == "connected" && redisStatus != "error" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}
