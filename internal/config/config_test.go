package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.RateLimitRPM)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Zero(t, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)

	// no secret by default
	require.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := applyEnv(cfg, envMap(map[string]string{
		"HTTP_ADDR":        ":8080",
		"HEALTH_GRPC_ADDR": "",
		"STORE_BACKEND":    "postgres",
		"DATABASE_URL":     "postgres://localhost/messagely",
		"JWT_KEYS":         "k1:one, k2:two",
		"JWT_ACTIVE_KID":   "k2",
		"TOKEN_TTL":        "24h",
		"BCRYPT_COST":      "4",
		"RATE_LIMIT_RPM":   "30",
		"CORS_ORIGINS":     "https://a.example, https://b.example",
		"REQUIRE_TLS":      "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.HealthGRPCAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, map[string]string{"k1": "one", "k2": "two"}, cfg.JWTKeys)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 30, cfg.RateLimitRPM)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad ttl", env: map[string]string{"TOKEN_TTL": "soon"}},
		{name: "bad rpm", env: map[string]string{"RATE_LIMIT_RPM": "ten"}},
		{name: "bad keys", env: map[string]string{"JWT_KEYS": "nocolon"}},
		{name: "bad bool", env: map[string]string{"REQUIRE_TLS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			assert.Error(t, applyEnv(cfg, envMap(tt.env)))
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseFlags(cfg, []string{"-addr", "127.0.0.1:9090", "-store", "mongo", "-mongo", "mongodb://db", "-token-ttl", "1h"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://db", cfg.MongoURI)
	assert.Equal(t, time.Hour, cfg.TokenTTL)

	assert.Error(t, parseFlags(cfg, []string{"-unknown"}))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.JWTSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "no secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "keys without active kid", mutate: func(c *Config) {
			c.JWTKeys = map[string]string{"k1": "s"}
		}, wantErr: true},
		{name: "keys with active kid", mutate: func(c *Config) {
			c.JWTSecret = ""
			c.JWTKeys = map[string]string{"k1": "s"}
			c.JWTActiveKid = "k1"
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sqlite" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreBackend = BackendPostgres }, wantErr: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreBackend = BackendMongo }, wantErr: true},
		{name: "tls required without cert", mutate: func(c *Config) { c.RequireTLS = true }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) { c.TokenTTL = -time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MESSAGELY_TEST_A=from-env\nMESSAGELY_TEST_B=from-env\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("MESSAGELY_TEST_A=from-local\n"), 0o600))
	t.Setenv("MESSAGELY_TEST_B", "from-os")
	t.Setenv("MESSAGELY_TEST_A", "")
	os.Unsetenv("MESSAGELY_TEST_A")

	loaded := LoadDotEnv(dir)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "from-local", os.Getenv("MESSAGELY_TEST_A"))
	assert.Equal(t, "from-os", os.Getenv("MESSAGELY_TEST_B"))
}
