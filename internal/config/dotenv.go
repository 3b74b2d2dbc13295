package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local and .env from dir (the working directory when
// omitted). Variables already present in the environment are never
// overwritten, and .env.local takes precedence over .env. It returns the files
// that were loaded.
func LoadDotEnv(dir ...string) []string {
	base := ""
	if len(dir) > 0 {
		base = dir[0]
	}
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		f = filepath.Join(base, f)
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
