package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/optionchainsim/service/internal/archive"
	"github.com/optionchainsim/service/internal/config"
	"github.com/optionchainsim/service/internal/historical"
	"github.com/optionchainsim/service/internal/httpapi"
	"github.com/optionchainsim/service/internal/logger"
	"github.com/optionchainsim/service/internal/observability"
	"github.com/optionchainsim/service/internal/redisclient"
	"github.com/optionchainsim/service/internal/scheduler"
	"github.com/optionchainsim/service/internal/session"
	"github.com/optionchainsim/service/internal/simcache"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Str("store_backend", cfg.StoreBackend).Msg("optionchainsim starting")

	store := buildStore(cfg, log)

	hist, err := historical.New(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("clickhouse init failed — historical method unavailable")
		hist = nil
	}

	arch, err := archive.Connect(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("mongo archive connect failed — continuing without archiving")
		arch = nil
	} else if arch != nil {
		log.Info().Msg("mongo step/event archive connected")
	}

	builder := simcache.NewBuilder(historicalSourceOrNil(hist))
	cache := simcache.New(builder)

	reg := prometheus.NewRegistry()
	metrics := observability.NewRegistry(reg, func() float64 { return float64(cache.Len()) })
	cache.SetMetrics(metrics)

	manager := session.NewManager(store, cache, arch, metrics, nil)

	sched := scheduler.New(log)
	cleanupJob := scheduler.NewCleanupJob(manager, log)
	if err := sched.AddJob(cfg.CleanupSchedule, cleanupJob); err != nil {
		log.Error().Err(err).Msg("failed to register cleanup job")
	}
	sched.Start()

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Manager:        manager,
		Logger:         log,
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP,
		MaxBodyBytes:   1 << 20,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("stopped gracefully")
	}

	if arch != nil {
		_ = arch.Close(context.Background())
	}
	if hist != nil {
		_ = hist.Close()
	}
}

func buildStore(cfg *config.Config, log zerolog.Logger) session.Store {
	if cfg.StoreBackend == "redis" {
		client := redisclient.New(cfg)
		if err := client.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		log.Info().Str("addr", cfg.RedisAddr()).Msg("redis store connected")
		return session.NewRedisStore(client, cfg.SessionPrefix, time.Duration(cfg.SessionTTLSec)*time.Second)
	}
	log.Info().Msg("using in-process session store")
	return session.NewMemStore(cfg.IdleHorizon)
}

func historicalSourceOrNil(h *historical.Repository) simcache.HistoricalSource {
	if h == nil {
		return nil
	}
	return h
}
