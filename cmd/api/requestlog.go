package main

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// logRequests attaches a request-scoped zerolog logger to the context and
// logs one line per request once the handler has finished.
func (app *application) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := app.log.With().
			Str("request_id", chimw.GetReqID(r.Context())).
			Logger()
		ctx := logger.WithContext(r.Context())

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			// requireAuth may have added the username to the context logger
			logger := zerolog.Ctx(ctx)

			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				if ww.Status() == 0 {
					writeJSON(ww, http.StatusInternalServerError, errorBody{Error: errorDetail{
						Status:  http.StatusInternalServerError,
						Message: "internal server error",
					}})
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("request")
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}
