// Package app wires the planner service runtime.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/grpc"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/compute"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/compute/luacalc"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/cache"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/hub"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/processor"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/queue"
	plannersqlite "github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/storage/sqlite"
)

// RuntimeConfig controls planner startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	HealthPort    int
	DBPath        string
	ComputeScript string
	PollInterval  time.Duration
	CacheTTL      time.Duration
	MaxEntries    int
	MaxRetries    int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

const (
	defaultPlannerHealthPort = 8097
	defaultPlannerDB         = "data/planner.db"
)

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultPlannerHealthPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultPlannerDB
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = processor.DefaultPollInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = domain.DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = domain.DefaultMaxEntries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = domain.DefaultMaxRetries
	}
	return cfg
}

// Run starts the planner runtime and blocks until ctx is canceled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create planner storage dir: %w", err)
		}
	}

	store, err := plannersqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open planner sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close planner sqlite store: %v", closeErr)
		}
	}()

	resultCache := cache.New(store,
		cache.WithMaxEntries(cfg.MaxEntries),
		cache.WithDefaultTTL(cfg.CacheTTL),
	)
	if err := resultCache.Load(ctx); err != nil {
		return fmt.Errorf("warm-start result cache: %w", err)
	}

	pendingQueue := queue.New(store, queue.WithMaxRetries(cfg.MaxRetries))
	if err := pendingQueue.Load(ctx); err != nil {
		return fmt.Errorf("warm-start request queue: %w", err)
	}
	log.Printf("planner recovered %d cached results and %d pending requests", resultCache.Size(), pendingQueue.Len())

	computer, err := buildComputer(cfg.ComputeScript)
	if err != nil {
		return err
	}

	outcomes := hub.New()
	outcomes.Subscribe("planner-log", func(outcome domain.Outcome) {
		if outcome.Status == domain.OutcomeFailed {
			log.Printf("calculation %s kind=%s failed after %d attempts: %s (%s)",
				outcome.RequestID, outcome.Kind, outcome.Attempts, outcome.ErrorMsg, outcome.ErrorCode)
			return
		}
		log.Printf("calculation %s kind=%s succeeded after %d attempts", outcome.RequestID, outcome.Kind, outcome.Attempts)
	})

	retryPolicy := processor.NoDelay()
	if cfg.RetryBackoff > 0 {
		retryPolicy = processor.ExponentialDelay(cfg.RetryBackoff, cfg.RetryMaxDelay)
	}

	proc, err := processor.New(pendingQueue, resultCache, outcomes, computer,
		processor.WithPollInterval(cfg.PollInterval),
		processor.WithCacheTTL(cfg.CacheTTL),
		processor.WithRetryPolicy(retryPolicy),
	)
	if err != nil {
		return fmt.Errorf("build queue processor: %w", err)
	}

	healthServer, err := platformgrpc.StartHealthServer(cfg.HealthPort, "planner.runtime")
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	defer healthServer.Stop()

	log.Printf("planner health listening at %v", healthServer.Addr())
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run queue processor: %w", err)
	}
	return nil
}

// buildComputer selects the compute collaborator. A Lua script path yields
// the scripted engine; otherwise an empty registry answers every kind with
// an unsupported error until the host registers formulas.
func buildComputer(scriptPath string) (processor.Computer, error) {
	scriptPath = strings.TrimSpace(scriptPath)
	if scriptPath == "" {
		log.Printf("no compute script configured, all calculations will fail as unsupported")
		return compute.NewRegistry(), nil
	}
	engine, err := luacalc.LoadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("load compute script: %w", err)
	}
	return engine, nil
}
