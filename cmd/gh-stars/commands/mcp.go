package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/config"
	"github.com/ghstars/gh-stars/internal/mcp"
)

// McpAction runs the MCP server on stdio. Logs go to stderr so stdout
// stays clean for the protocol stream.
func McpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath := cmd.String("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting MCP server", "db", cfg.DBPath)

	srv, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
