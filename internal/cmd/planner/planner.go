// Package planner parses planner command flags and launches the planner runtime.
package planner

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/cmd"
	plannerserver "github.com/Swappnil85/Drishti-V2-sub003/internal/services/planner/app"
)

// Config holds planner command configuration.
type Config struct {
	HealthPort    int           `env:"DRISHTI_PLANNER_HEALTH_PORT" envDefault:"8097"`
	DBPath        string        `env:"DRISHTI_PLANNER_DB_PATH" envDefault:"data/planner.db"`
	ComputeScript string        `env:"DRISHTI_PLANNER_COMPUTE_SCRIPT"`
	PollInterval  time.Duration `env:"DRISHTI_PLANNER_POLL_INTERVAL" envDefault:"2s"`
	CacheTTL      time.Duration `env:"DRISHTI_PLANNER_CACHE_TTL" envDefault:"5m"`
	MaxEntries    int           `env:"DRISHTI_PLANNER_CACHE_MAX_ENTRIES" envDefault:"1000"`
	MaxRetries    int           `env:"DRISHTI_PLANNER_MAX_RETRIES" envDefault:"3"`
	RetryBackoff  time.Duration `env:"DRISHTI_PLANNER_RETRY_BACKOFF" envDefault:"0s"`
	RetryMaxDelay time.Duration `env:"DRISHTI_PLANNER_RETRY_MAX_DELAY" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The planner health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The planner SQLite database path")
	fs.StringVar(&cfg.ComputeScript, "compute-script", cfg.ComputeScript, "Lua compute script path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Queue drain interval")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Result cache entry lifetime")
	fs.IntVar(&cfg.MaxEntries, "cache-max-entries", cfg.MaxEntries, "Result cache capacity")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Transient retry budget per request")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Base retry delay, zero retries immediately")
	fs.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "Maximum retry delay")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the planner runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlanner, func(context.Context) error {
		return plannerserver.Run(ctx, plannerserver.RuntimeConfig{
			HealthPort:    cfg.HealthPort,
			DBPath:        cfg.DBPath,
			ComputeScript: cfg.ComputeScript,
			PollInterval:  cfg.PollInterval,
			CacheTTL:      cfg.CacheTTL,
			MaxEntries:    cfg.MaxEntries,
			MaxRetries:    cfg.MaxRetries,
			RetryBackoff:  cfg.RetryBackoff,
			RetryMaxDelay: cfg.RetryMaxDelay,
		})
	})
}
