// Package calc parses calc command flags and launches the calc runtime.
package calc

import (
	"context"
	"flag"

	entrypoint "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/cmd"
	calcserver "github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/app"
)

// Config holds calc command configuration.
type Config struct {
	HTTPPort   int    `env:"DRISHTI_CALC_HTTP_PORT" envDefault:"8095"`
	HealthPort int    `env:"DRISHTI_CALC_HEALTH_PORT" envDefault:"8096"`
	DBPath     string `env:"DRISHTI_CALC_DB_PATH" envDefault:"data/calc.db"`
	Locale     string `env:"DRISHTI_CALC_LOCALE" envDefault:"en"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "The calc HTTP server port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The calc health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The calc SQLite database path")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Notification locale")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the calc runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCalc, func(context.Context) error {
		return calcserver.Run(ctx, calcserver.RuntimeConfig{
			HTTPPort:   cfg.HTTPPort,
			HealthPort: cfg.HealthPort,
			DBPath:     cfg.DBPath,
			Locale:     cfg.Locale,
		})
	})
}
