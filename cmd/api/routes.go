package main

import (
	"net/http"

	"github.com/PaulBabatuyi/messagely/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// routes builds the HTTP handler for the whole API.
func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(app.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(app.notFound)
	r.MethodNotAllowed(app.methodNotAllowed)

	r.Get("/healthz", app.healthz)

	// credential endpoints are rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(app.limiter, app.log, app.rateLimited))
		r.Post("/login", app.login)
		r.Post("/register", app.register)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(app.requireAuth)
		r.Post("/", app.createMessage)
		r.Get("/{id}", app.getMessage)
		r.Post("/{id}/read", app.markRead)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(app.requireAuth)
		r.Get("/", app.listUsers)
		r.Route("/{username}", func(r chi.Router) {
			r.Use(app.requireCorrectUser)
			r.Get("/", app.getUser)
			r.Get("/to", app.messagesTo)
			r.Get("/from", app.messagesFrom)
		})
	})

	return r
}
