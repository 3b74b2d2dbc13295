// Package config handles configuration for the API server: defaults, .env
// files, environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Storage backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds runtime settings for the messagely API. It is built once at
// startup and not modified afterwards.
type Config struct {
	HTTPAddr       string
	HealthGRPCAddr string
	Env            string
	LogLevel       string

	StoreBackend  string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	// JWTSecret is used when JWTKeys is empty. JWTKeys maps kid to secret and
	// enables key rotation; JWTActiveKid selects the signing key.
	JWTSecret    string
	JWTKeys      map[string]string
	JWTActiveKid string
	// TokenTTL of zero issues tokens without an exp claim.
	TokenTTL   time.Duration
	BcryptCost int

	RateLimitRPM   int
	RateLimitBurst int
	RedisURL       string

	CORSOrigins []string

	TLSCert    string
	TLSKey     string
	RequireTLS bool
}

// LoadDefaults populates Config with development defaults. No JWT secret is
// set, so Validate fails until one is configured.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.HealthGRPCAddr = ":50051"
	c.Env = "development"
	c.LogLevel = "info"
	c.StoreBackend = BackendMemory
	c.MongoDatabase = "messagely"
	c.BcryptCost = bcrypt.DefaultCost
	c.RateLimitRPM = 10
	c.RateLimitBurst = 3
	c.CORSOrigins = []string{"*"}
}

// Load builds a Config by applying defaults, then .env files, then the
// process environment and finally the given command-line arguments.
func Load(args []string) (*Config, error) {
	LoadDotEnv()

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" && len(c.JWTKeys) == 0 {
		errs = append(errs, errors.New("either JWT_SECRET or JWT_KEYS must be set"))
	}
	if len(c.JWTKeys) > 0 {
		if _, ok := c.JWTKeys[c.JWTActiveKid]; !ok {
			errs = append(errs, fmt.Errorf("JWT_ACTIVE_KID %q has no key in JWT_KEYS", c.JWTActiveKid))
		}
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set for the postgres backend"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI must be set for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.RequireTLS && (c.TLSCert == "" || c.TLSKey == "") {
		errs = append(errs, errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// ParseJWTKeys parses "kid:secret,kid2:secret2".
func ParseJWTKeys(s string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kid, secret, ok := strings.Cut(p, ":")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %s", p)
		}
		keys[kid] = secret
	}
	return keys, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
