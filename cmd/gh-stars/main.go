package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/cmd/gh-stars/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "gh-stars",
		Usage: "Cache and search GitHub starred repositories",
		Commands: []*cli.Command{
			{
				Name:      "fetch",
				Usage:     "Fetch a user's starred repositories into the cache",
				ArgsUsage: "<username>",
				Flags: append(commonFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Discard the cached data and refetch everything",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding workers",
						Value: 4,
					},
				),
				Action: commands.FetchAction,
			},
			{
				Name:      "search",
				Usage:     "Search cached stars by keyword or meaning",
				ArgsUsage: "<query>",
				Flags: append(append(commonFlags(), userFlags()...),
					&cli.BoolFlag{
						Name:  "semantic",
						Usage: "Rank by vector similarity instead of keyword match",
					},
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Only include repositories in these languages",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 30,
					},
					jsonFlag(),
				),
				Action: commands.SearchAction,
			},
			{
				Name:  "list",
				Usage: "List cached stars, most recently starred first",
				Flags: append(append(commonFlags(), userFlags()...),
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Only include repositories in these languages",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 30,
					},
					jsonFlag(),
				),
				Action: commands.ListAction,
			},
			{
				Name:      "info",
				Usage:     "Show the full cached record for one repository",
				ArgsUsage: "<owner/name>",
				Flags: append(append(commonFlags(), userFlags()...),
					jsonFlag(),
				),
				Action: commands.InfoAction,
			},
			{
				Name:  "users",
				Usage: "List cached users",
				Flags: append(commonFlags(),
					jsonFlag(),
				),
				Action: commands.UsersAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the cache over the Model Context Protocol on stdio",
				Flags:  commonFlags(),
				Action: commands.McpAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "env",
			Usage: "Environment file path",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Cache database path (overrides GHSTARS_DB_PATH)",
		},
	}
}

func userFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "user",
			Usage: "Cached user to query, repeatable",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Query every cached user",
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Emit JSON instead of a table",
	}
}
