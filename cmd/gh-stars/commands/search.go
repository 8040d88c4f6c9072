package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/searcher"
	"github.com/ghstars/gh-stars/pkg/types"
)

// SearchAction queries the cache with keyword or semantic matching.
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: gh-stars search [options] <query>")
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

	emb, err := ac.NewEmbedder()
	if err != nil {
		ac.Logger.Warn("embedding backend unavailable", "error", err)
		emb = nil
	}

	sr := searcher.New(ac.Store, emb, searcher.WithLogger(ac.Logger))
	resp, err := sr.Search(ctx, searcher.Request{
		Users:     users,
		Query:     query,
		Languages: cmd.StringSlice("language"),
		Semantic:  cmd.Bool("semantic"),
		Limit:     int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if resp.Degraded {
		fmt.Fprintln(os.Stderr, "semantic search unavailable, showing keyword matches")
	}

	if cmd.Bool("json") {
		return printJSON(resp.Results)
	}
	printResultTable(resp.Results, len(users) > 1, true)
	return nil
}

// printResultTable renders results with their display numbers. The
// user column only appears for multi-user queries.
func printResultTable(results []types.SearchResult, showUser, showScore bool) {
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	header := []string{"#", "Repository", "Description", "Language", "Stars"}
	if showScore {
		header = append(header, "Score")
	}
	if showUser {
		header = append(header, "User")
	}
	table.Header(toAny(header)...)

	for _, r := range results {
		row := []string{
			fmt.Sprintf("%d", r.DisplayNumber),
			r.Record.Key(),
			truncate(r.Record.Description, 60),
			r.Record.Language,
			fmt.Sprintf("%d", r.Record.Stars),
		}
		if showScore {
			row = append(row, fmt.Sprintf("%.2f", r.Score))
		}
		if showUser {
			row = append(row, r.MatchedUser)
		}
		table.Append(toAny(row)...)
	}
	table.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
