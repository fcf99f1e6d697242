package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything read from the environment at startup. The
// availability flags are computed once here and injected; no component
// re-reads the environment after this.
type Config struct {
	Addr          string
	Database      string
	SessionSecret string

	UnsplashAccessKey string
	GeminiAPIKey      string

	PrettyJson bool
}

func loadConfig(logger *log.Logger) Config {
	// .env is optional, for local dev.
	_ = godotenv.Load(".env")

	cfg := Config{
		Addr:              envOr("ADDR", ":5000"),
		Database:          envOr("DATABASE", "data/wanderwallet.db"),
		SessionSecret:     envOr("SESSION_SECRET", "dev-secret-key-change-in-production"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		PrettyJson:        os.Getenv("PRETTY_JSON") == "1",
	}

	if cfg.UnsplashAccessKey != "" {
		logger.Printf("Unsplash API key loaded: %s...", cfg.UnsplashAccessKey[:min(8, len(cfg.UnsplashAccessKey))])
	} else {
		logger.Println("Unsplash API key not found - will use fallback images")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Println("GEMINI_API_KEY not found in environment")
	}

	return cfg
}

// UnsplashConfigured reports whether the external image-search service is usable.
func (cfg *Config) UnsplashConfigured() bool { return cfg.UnsplashAccessKey != "" }

// GeminiConfigured reports whether the generative service is usable.
func (cfg *Config) GeminiConfigured() bool { return cfg.GeminiAPIKey != "" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
