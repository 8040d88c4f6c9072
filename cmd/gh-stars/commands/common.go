package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/config"
	"github.com/ghstars/gh-stars/internal/embedder"
	"github.com/ghstars/gh-stars/internal/store"
)

// timeRounding trims durations for human output
const timeRounding = 10 * time.Millisecond

// AppContext holds everything a command needs: loaded configuration,
// the open cache and a configured logger.
type AppContext struct {
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger
}

// NewAppContext loads configuration and opens the cache database.
func NewAppContext(ctx context.Context, cmd *cli.Command) (*AppContext, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath := cmd.String("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", cfg.DBPath, err)
	}

	return &AppContext{
		Config: cfg,
		Store:  st,
		Logger: logger,
	}, nil
}

// Close releases the cache database
func (ac *AppContext) Close() {
	if ac.Store != nil {
		_ = ac.Store.Close()
	}
}

// NewEmbedder builds the configured embedding backend.
func (ac *AppContext) NewEmbedder() (embedder.Embedder, error) {
	if ac.Config.Embedding.Provider != "" {
		return embedder.New(embedder.Config{
			Provider:  ac.Config.Embedding.Provider,
			CacheSize: ac.Config.Embedding.CacheSize,
		})
	}
	return embedder.NewFromEnv()
}

// ResolveUsers turns the --user/--all flags into a concrete user list.
// With --all, every cached user is searched; with neither flag, a
// single cached user is assumed and anything else is an error asking
// the caller to disambiguate.
func (ac *AppContext) ResolveUsers(ctx context.Context, cmd *cli.Command) ([]string, error) {
	if users := cmd.StringSlice("user"); len(users) > 0 {
		return users, nil
	}

	cached, err := ac.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("no cached users, run 'gh-stars fetch <username>' first")
	}

	if cmd.Bool("all") {
		users := make([]string, 0, len(cached))
		for _, u := range cached {
			users = append(users, u.Username)
		}
		return users, nil
	}

	if len(cached) == 1 {
		return []string{cached[0].Username}, nil
	}

	names := make([]string, 0, len(cached))
	for _, u := range cached {
		names = append(names, u.Username)
	}
	return nil, fmt.Errorf("multiple users cached (%s), pick one with --user or search all with --all",
		strings.Join(names, ", "))
}

// newLogger writes structured JSON logs to stderr so tables and JSON
// output own stdout.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// truncate shortens a string for table display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
