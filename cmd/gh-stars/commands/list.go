package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/searcher"
)

// ListAction prints cached stars, most recently starred first.
func ListAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer ac.Close()

	users, err := ac.ResolveUsers(ctx, cmd)
	if err != nil {
		return err
	}

	sr := searcher.New(ac.Store, nil, searcher.WithLogger(ac.Logger))
	results, err := sr.List(ctx, users, cmd.StringSlice("language"))
	if err != nil {
		return err
	}

	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	if cmd.Bool("json") {
		return printJSON(results)
	}
	printResultTable(results, len(users) > 1, false)
	return nil
}
