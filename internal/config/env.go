package config

import (
	"fmt"
	"strconv"
	"time"
)

// applyEnv overlays cfg with the variables found through lookup. Unset
// variables leave the current value alone.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	if v, ok := lookup("HEALTH_GRPC_ADDR"); ok {
		// an explicitly empty value disables the health server
		cfg.HealthGRPCAddr = v
	}
	str("APP_ENV", &cfg.Env)
	str("LOG_LEVEL", &cfg.LogLevel)

	str("STORE_BACKEND", &cfg.StoreBackend)
	str("DATABASE_URL", &cfg.DatabaseDSN)
	str("MONGODB_URI", &cfg.MongoURI)
	str("MONGODB_DATABASE", &cfg.MongoDatabase)

	str("JWT_SECRET", &cfg.JWTSecret)
	str("JWT_ACTIVE_KID", &cfg.JWTActiveKid)
	if v, ok := lookup("JWT_KEYS"); ok && v != "" {
		keys, err := ParseJWTKeys(v)
		if err != nil {
			return err
		}
		cfg.JWTKeys = keys
	}
	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	for key, dst := range map[string]*int{
		"BCRYPT_COST":      &cfg.BcryptCost,
		"RATE_LIMIT_RPM":   &cfg.RateLimitRPM,
		"RATE_LIMIT_BURST": &cfg.RateLimitBurst,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	str("REDIS_URL", &cfg.RedisURL)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	str("TLS_CERT", &cfg.TLSCert)
	str("TLS_KEY", &cfg.TLSKey)
	if v, ok := lookup("REQUIRE_TLS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REQUIRE_TLS: %w", err)
		}
		cfg.RequireTLS = b
	}
	return nil
}
