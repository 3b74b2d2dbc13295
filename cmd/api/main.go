package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/config"
	"github.com/PaulBabatuyi/messagely/internal/logging"
	"github.com/PaulBabatuyi/messagely/internal/middleware"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()
	log.Info().Str("store", store.name).Msg("store ready")

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	app, err := newApplication(cfg, log, store, limiter)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 2)
	stopHealth := func() {}
	if cfg.HealthGRPCAddr != "" {
		gs, hs, err := newHealthServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to load TLS certs: %w", err)
		}
		lis, err := net.Listen("tcp", cfg.HealthGRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}

		watchCtx, cancelWatch := context.WithCancel(ctx)
		go watchStore(watchCtx, hs, store.ping, 15*time.Second, log)
		go func() {
			log.Info().Str("addr", cfg.HealthGRPCAddr).Msg("gRPC health server listening")
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC health server: %w", err)
			}
		}()
		stopHealth = func() {
			cancelWatch()
			hs.Shutdown()
			gs.GracefulStop()
		}
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Bool("tls", cfg.TLSEnabled()).Msg("HTTP server listening")
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		stopHealth()
		return err
	}

	stopHealth()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newLimiter returns the Redis-backed limiter when REDIS_URL is set so all
// instances share one budget, and an in-process limiter otherwise.
func newLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (middleware.Limiter, func(), error) {
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("using redis rate limiter")
		return middleware.NewRedisLimiter(client, cfg.RateLimitRPM, cfg.RateLimitBurst), func() { _ = client.Close() }, nil
	}

	// small burst allows a couple of quick retries
	store := middleware.NewLimiterStore(cfg.RateLimitRPM, cfg.RateLimitBurst, time.Minute)
	return store, store.Stop, nil
}
