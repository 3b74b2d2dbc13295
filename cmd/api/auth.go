package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PaulBabatuyi/messagely/internal/auth"
	"github.com/PaulBabatuyi/messagely/internal/normalize"
	"github.com/PaulBabatuyi/messagely/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// context key type for storing auth claims in context
type authContextKey struct{}

// claimsFromContext extracts auth claims from the context, if present.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}

// withClaims returns a copy of ctx carrying claims.
func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, authContextKey{}, claims)
}

// requireAuth rejects requests without a valid bearer token and attaches the
// verified claims to the request context for handlers.
func (app *application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			app.writeError(w, r, fmt.Errorf("%w: missing authorization header", service.ErrAuth))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			app.writeError(w, r, fmt.Errorf("%w: invalid token", service.ErrAuth))
			return
		}

		claims, err := app.tokens.VerifyToken(token)
		if err != nil {
			app.writeError(w, r, fmt.Errorf("%w: %v", service.ErrAuth, err))
			return
		}

		// the request logger reads this back after the handler returns
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("username", claims.Username)
		})

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// pathUsername returns the {username} path parameter in canonical form.
func pathUsername(r *http.Request) string {
	return normalize.Username(chi.URLParam(r, "username"))
}

// requireCorrectUser must run after requireAuth. It only lets through
// requests whose identity matches the {username} path parameter.
func (app *application) requireCorrectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || claims.Username != pathUsername(r) {
			app.writeError(w, r, fmt.Errorf("%w: not allowed to access this user", service.ErrAuth))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requester returns the authenticated username. Routes reaching handlers that
// call it are always behind requireAuth.
func requester(r *http.Request) string {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Username
}
