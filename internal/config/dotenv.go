package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotenv reads optional .env files from dir into the process environment.
// Variables already set are never overwritten, so earlier files win:
// .env.<APP_ENV>.local, .env.local, .env.<APP_ENV>, .env.
// Missing files are skipped.
func LoadDotenv(dir string) []string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	candidates := []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"}
	var loaded []string
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	return loaded
}
