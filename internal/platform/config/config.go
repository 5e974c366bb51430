// Package config reads settings from a .env file and the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load sets environment variables from the given .env files, ".env" by
// default. Variables already set in the environment win. A missing file is an
// error callers may ignore.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of key, or fallback if it is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns key parsed as an integer, or fallback if it is unset,
// empty or malformed.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool returns key parsed by strconv.ParseBool, or fallback if it is
// unset, empty or malformed.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

// Server is the configuration of cmd/server.
type Server struct {
	Port             string
	LogLevel         string
	LogFormat        string
	DefaultFPS       int
	RenderWorkers    int
	MaxRenderFrames  int
	StoreDriver      string
	SQLitePath       string
	SequencesDir     string
	StrictReferences bool
}

// LoadServer reads the server configuration from the environment.
func LoadServer() Server {
	return Server{
		Port:             GetEnv("PORT", "8080"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		LogFormat:        GetEnv("LOG_FORMAT", "json"),
		DefaultFPS:       GetEnvInt("DEFAULT_FPS", 30),
		RenderWorkers:    GetEnvInt("RENDER_WORKERS", 4),
		MaxRenderFrames:  GetEnvInt("MAX_RENDER_FRAMES", 1800),
		StoreDriver:      GetEnv("STORE_DRIVER", "memory"),
		SQLitePath:       GetEnv("SQLITE_PATH", "timeline.db"),
		SequencesDir:     GetEnv("SEQUENCES_DIR", ""),
		StrictReferences: GetEnvBool("STRICT_REFERENCES", false),
	}
}
