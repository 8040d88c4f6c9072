package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/resolver"
	"github.com/ghstars/gh-stars/internal/searcher"
	"github.com/ghstars/gh-stars/pkg/types"
)

// InfoAction shows the full cached record for one repository.
// References are "owner/name" keys or display numbers from the list
// output; numbers are resolved against the regenerated listing, which
// is deterministic for the same users and cache state.
func InfoAction(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("usage: gh-stars info <owner/name | number>")
	}

	ac, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer ac.Close()

	users, err := ac.ResolveUsers(ctx, cmd)
	if err != nil {
		return err
	}

	var listing []types.SearchResult
	if _, convErr := strconv.Atoi(ref); convErr == nil {
		listing, err = searcher.New(ac.Store, nil).List(ctx, users, nil)
		if err != nil {
			return err
		}
	}

	rec, cachedFor, err := resolver.New(ac.Store).Resolve(ctx, users, ref, listing)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return printJSON(rec)
	}

	fmt.Printf("%s\n", rec.Key())
	if rec.Description != "" {
		fmt.Printf("  %s\n", rec.Description)
	}
	fmt.Println()
	printField("Language", rec.Language)
	printField("Stars", fmt.Sprintf("%d", rec.Stars))
	printField("Forks", fmt.Sprintf("%d", rec.Forks))
	printField("Open issues", fmt.Sprintf("%d", rec.OpenIssues))
	printField("URL", rec.URL)
	printField("Topics", strings.Join(rec.Topics, ", "))
	printField("Created", formatDate(rec.CreatedAt))
	printField("Updated", formatDate(rec.UpdatedAt))
	printField("Pushed", formatDate(rec.PushedAt))
	printField("Starred", formatDate(rec.StarredAt))
	printField("Cached for", cachedFor)
	return nil
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("  %-12s %s\n", label+":", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
