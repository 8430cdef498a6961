// Package app wires the calc service runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	platformgrpc "github.com/Swappnil85/Drishti-V2-sub003/internal/platform/grpc"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/platform/timeouts"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/api/web"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/batch"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/domain"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/notify"
	"github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/resource"
	calcsqlite "github.com/Swappnil85/Drishti-V2-sub003/internal/services/calc/storage/sqlite"
)

// RuntimeConfig controls calc service startup and dependencies.
type RuntimeConfig struct {
	HTTPPort   int
	HealthPort int
	DBPath     string
	Locale     string
}

const (
	defaultCalcHTTPPort   = 8095
	defaultCalcHealthPort = 8096
	defaultCalcDB         = "data/calc.db"
)

// logInvalidator announces invalidation rounds to the process log. Cache
// entries live on the planner side; the calc service only signals which
// resource kinds went stale.
type logInvalidator struct{}

func (logInvalidator) InvalidateKind(_ context.Context, kind domain.ResourceKind) {
	log.Printf("cache invalidation round resource_kind=%s", kind)
}

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if cfg.HTTPPort <= 0 {
		cfg.HTTPPort = defaultCalcHTTPPort
	}
	if cfg.HealthPort <= 0 {
		cfg.HealthPort = defaultCalcHealthPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultCalcDB
	}
	return cfg
}

// Run starts the calc service and blocks until ctx is canceled or the HTTP
// server fails.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create calc storage dir: %w", err)
		}
	}

	store, err := calcsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open calc sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close calc sqlite store: %v", closeErr)
		}
	}()

	resources, err := resource.NewService(store)
	if err != nil {
		return fmt.Errorf("build resource service: %w", err)
	}

	locale := language.English
	if raw := strings.TrimSpace(cfg.Locale); raw != "" {
		if tag, parseErr := language.Parse(raw); parseErr == nil {
			locale = tag
		} else {
			log.Printf("unknown locale %q, using English", raw)
		}
	}
	notifier := notify.NewLogNotifier(notify.WithLanguage(locale))
	aggregator := batch.NewAggregator(logInvalidator{}, notifier)

	runner, err := batch.NewRunner(resources, batch.WithAggregator(aggregator))
	if err != nil {
		return fmt.Errorf("build batch runner: %w", err)
	}

	healthServer, err := platformgrpc.StartHealthServer(cfg.HealthPort, "calc.api")
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	defer healthServer.Stop()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           web.NewHandler(runner).Routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	log.Printf("calc server listening at %s, health at %v", httpServer.Addr, healthServer.Addr())

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve calc http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown calc http: %w", err)
	}
	<-serveErr
	return nil
}
