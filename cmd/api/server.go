package main

import (
	"fmt"

	"github.com/PaulBabatuyi/messagely/internal/auth"
	"github.com/PaulBabatuyi/messagely/internal/config"
	"github.com/PaulBabatuyi/messagely/internal/middleware"
	"github.com/PaulBabatuyi/messagely/internal/service"
	"github.com/rs/zerolog"
)

// application holds the dependencies shared by HTTP handlers.
type application struct {
	cfg     *config.Config
	log     zerolog.Logger
	tokens  *auth.JWTManager
	creds   *service.Credentials
	msgs    *service.Messages
	dir     *service.Directory
	limiter middleware.Limiter
	store   *backend
}

// newApplication wires services on top of store.
func newApplication(cfg *config.Config, log zerolog.Logger, store *backend, limiter middleware.Limiter) (*application, error) {
	tokens := newJWTManager(cfg)
	creds, err := service.NewCredentials(store.users, tokens, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("credentials service: %w", err)
	}
	return &application{
		cfg:     cfg,
		log:     log,
		tokens:  tokens,
		creds:   creds,
		msgs:    service.NewMessages(store.users, store.msgs),
		dir:     service.NewDirectory(store.users, store.msgs),
		limiter: limiter,
		store:   store,
	}, nil
}

// newJWTManager uses the JWT_KEYS set when present so keys can be rotated,
// and the single JWT_SECRET otherwise.
func newJWTManager(cfg *config.Config) *auth.JWTManager {
	if len(cfg.JWTKeys) > 0 {
		return auth.NewJWTManagerFromKeys(cfg.JWTKeys, cfg.JWTActiveKid, cfg.TokenTTL)
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
}
