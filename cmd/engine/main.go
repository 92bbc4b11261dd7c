package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piyushdaiya/address-classifier/internal/config"
	"github.com/piyushdaiya/address-classifier/internal/logging"
	"github.com/piyushdaiya/address-classifier/internal/metrics"
	"github.com/piyushdaiya/address-classifier/internal/validator"
	"github.com/piyushdaiya/address-classifier/internal/watchlist"
)

func main() {
	if err := run(); err != nil {
		logging.Logger().Error("engine stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stdout)
	log := logging.Logger()
	log.Info("starting watchlist engine", "db_path", cfg.DBPath, "port", cfg.Port)

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := watchlist.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewEngineMetrics()
	metrics.Register(reg, m)

	classifier, err := buildClassifier(ctx, store, policy, m)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}
	srv := watchlist.NewServer(store, classifier, m, reg, cfg.RateLimit)

	e := &engine{
		syncer: watchlist.NewSyncer(store, cfg.OFACURL),
		store:  store,
		policy: policy,
		server: srv,
		m:      m,
	}
	go e.loop(ctx, cfg.SyncInterval)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("database available, listening", "addr", httpServer.Addr)
	err = serve(ctx, httpServer)
	log.Info("shutting down")
	return err
}

// serve runs srv until ctx is done or the listener fails, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildClassifier combines the policy with every EVM address in the store.
func buildClassifier(ctx context.Context, store *watchlist.Store, policy config.Policy, m metrics.EngineMetrics) (*validator.Classifier, error) {
	deny, err := store.Denylist(ctx)
	if err != nil {
		return nil, err
	}
	c, err := policy.NewClassifier(deny...)
	if err != nil {
		return nil, err
	}
	m.DenylistSize.Set(float64(len(deny)))
	return c, nil
}

type engine struct {
	syncer *watchlist.Syncer
	store  *watchlist.Store
	policy config.Policy
	server *watchlist.Server
	m      metrics.EngineMetrics
}

func (e *engine) loop(ctx context.Context, every time.Duration) {
	log := logging.Logger()
	log.Info("initializing sync loop", "interval", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if err := e.syncOnce(ctx); err != nil {
			log.Error("sync failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// syncOnce refreshes the store when the published list changed and swaps in
// a classifier built from the new denylist.
func (e *engine) syncOnce(ctx context.Context) error {
	log := logging.Logger()
	if !e.syncer.ShouldUpdate(ctx) {
		log.Info("database is up to date")
		e.m.SyncRuns.WithLabelValues("skipped").Inc()
		return nil
	}

	log.Info("update detected, starting OFAC download")
	start := time.Now()
	stats, err := e.syncer.Run(ctx)
	e.m.SyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.m.SyncRuns.WithLabelValues("failed").Inc()
		return err
	}
	e.m.SyncRuns.WithLabelValues("loaded").Inc()
	e.m.AddressesLoaded.Set(float64(stats.Loaded))

	c, err := buildClassifier(ctx, e.store, e.policy, e.m)
	if err != nil {
		return err
	}
	e.server.SetClassifier(c)
	log.Info("database update complete", "loaded", stats.Loaded, "parties", stats.Parties)
	return nil
}
