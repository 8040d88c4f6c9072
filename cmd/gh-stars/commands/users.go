package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// UsersAction lists every cached user with record count and last sync
// time.
func UsersAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer ac.Close()

	users, err := ac.Store.ListUsers(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return printJSON(users)
	}

	if len(users) == 0 {
		fmt.Println("no cached users, run 'gh-stars fetch <username>' first")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("User", "Repos", "Last Synced")
	for _, u := range users {
		table.Append(u.Username, fmt.Sprintf("%d", u.RepoCount), u.LastSynced.UTC().Format("2006-01-02 15:04"))
	}
	table.Render()
	return nil
}
