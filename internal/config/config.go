package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the complete runtime configuration
type Config struct {
	// DBPath is where the SQLite cache lives
	DBPath string

	// GitHubToken authenticates API requests. Empty means
	// unauthenticated access with the lower rate limit.
	GitHubToken string

	// Embedding provider settings
	Embedding EmbeddingConfig

	// LogLevel is one of debug, info, warn, error
	LogLevel string
}

// EmbeddingConfig selects and tunes the embedding backend
type EmbeddingConfig struct {
	Provider  string
	CacheSize int
}

// Load reads configuration from the environment, optionally seeded
// from a .env file. A missing .env file is not an error; everything
// can come from real environment variables.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	dbPath := os.Getenv("GHSTARS_DB_PATH")
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		DBPath:      dbPath,
		GitHubToken: getEnv("GITHUB_TOKEN", ""),
		Embedding: EmbeddingConfig{
			Provider:  getEnv("GHSTARS_EMBEDDING_PROVIDER", ""),
			CacheSize: getEnvAsInt("GHSTARS_EMBEDDING_CACHE_SIZE", 10000),
		},
		LogLevel: getEnv("GHSTARS_LOG_LEVEL", "info"),
	}, nil
}

// DefaultDBPath places the cache under the OS user cache directory.
func DefaultDBPath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(base, "gh-stars", "stars.db"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
