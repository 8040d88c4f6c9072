package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ghstars/gh-stars/internal/github"
	"github.com/ghstars/gh-stars/internal/syncer"
)

// FetchAction refreshes the cache for one GitHub user.
func FetchAction(ctx context.Context, cmd *cli.Command) error {
	username := cmd.Args().First()
	if username == "" {
		return fmt.Errorf("usage: gh-stars fetch <username>")
	}

	ac, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	defer ac.Close()

	emb, err := ac.NewEmbedder()
	if err != nil {
		// Semantic search degrades, everything else still works
		ac.Logger.Warn("embedding backend unavailable, caching without vectors", "error", err)
		emb = nil
	}

	client := github.NewClient(ac.Config.GitHubToken, github.WithLogger(ac.Logger))
	syn := syncer.New(ac.Store, client, emb,
		syncer.WithLogger(ac.Logger),
		syncer.WithWorkers(int(cmd.Int("workers"))))

	report, err := syn.Sync(ctx, username, cmd.Bool("force"))
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d starred repositories for %s in %s\n",
		report.Total, report.User, report.Duration.Round(timeRounding))
	fmt.Printf("  added: %d  updated: %d  unchanged: %d  removed: %d\n",
		len(report.Merge.Added), len(report.Merge.Updated),
		len(report.Merge.Unchanged), len(report.Merge.Removed))
	if report.Embedded+report.Skipped+report.Failed > 0 {
		fmt.Printf("  embeddings: %d new, %d reused, %d failed\n",
			report.Embedded, report.Skipped, report.Failed)
	}
	return nil
}
