package config

import (
	"flag"
	"io"
)

// parseFlags overlays cfg with command-line flags.
//
// Supported flags:
//
//	-addr string      HTTP listen address (e.g. ":3000")
//	-store string     storage backend: memory, postgres or mongo
//	-dsn string       PostgreSQL DSN
//	-mongo string     MongoDB URI
//	-health string    gRPC health listen address, empty disables
//	-log-level string zerolog level
//	-token-ttl dur    token lifetime, 0 disables expiry
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("messagely", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "storage backend (memory|postgres|mongo)")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.MongoURI, "mongo", cfg.MongoURI, "MongoDB URI")
	fs.StringVar(&cfg.HealthGRPCAddr, "health", cfg.HealthGRPCAddr, "gRPC health listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "token lifetime (0 = no expiry)")

	return fs.Parse(args)
}
