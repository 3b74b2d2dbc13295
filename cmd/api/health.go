package main

import (
	"context"
	"net/http"
	"time"

	"github.com/PaulBabatuyi/messagely/internal/config"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthServiceName is reported alongside the server-wide "" entry.
const healthServiceName = "messagely.API"

const pingTimeout = 2 * time.Second

// newHealthServer returns a gRPC server exposing only grpc.health.v1.Health.
// It uses the API's TLS certificate when one is configured.
func newHealthServer(cfg *config.Config) (*grpc.Server, *health.Server, error) {
	var opts []grpc.ServerOption
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs, nil
}

// setServing updates both health entries.
func setServing(hs *health.Server, ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(healthServiceName, status)
}

// watchStore pings the store every interval and mirrors the result into hs
// until ctx is cancelled.
func watchStore(ctx context.Context, hs *health.Server, ping func(context.Context) error, interval time.Duration, log zerolog.Logger) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := ping(pctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("store ping failed")
		}
		setServing(hs, err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

// healthz handles GET /healthz.
func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := app.store.ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": app.store.name})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "store": app.store.name})
}
