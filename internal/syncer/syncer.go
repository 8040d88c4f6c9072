package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghstars/gh-stars/internal/embedder"
	"github.com/ghstars/gh-stars/internal/store"
	"github.com/ghstars/gh-stars/pkg/types"
)

// ErrSyncInProgress is returned when a fetch for the same process is
// already running.
var ErrSyncInProgress = errors.New("a fetch is already in progress")

const defaultWorkers = 4

// StarFetcher is the upstream source of a user's starred listing.
// Satisfied by the GitHub API client; tests substitute their own.
type StarFetcher interface {
	FetchStarred(ctx context.Context, username string) ([]types.RepoRecord, error)
}

// Report summarizes one completed fetch session.
type Report struct {
	User     string
	Merge    *types.MergeReport
	Total    int
	Embedded int
	Skipped  int // embeddings still valid, no backend call made
	Failed   int // embedding failures, search degrades for these
	Duration time.Duration
}

// Syncer drives a fetch session: retrieve the full starred listing,
// merge it into the cache, then refresh the embedding index. The
// listing is fetched completely before any write, so a failed page
// leaves the previous cache untouched.
type Syncer struct {
	store    *store.Store
	fetcher  StarFetcher
	embedder embedder.Embedder
	logger   *slog.Logger
	workers  int
	lock     SyncLock
}

// Option configures a Syncer
type Option func(*Syncer)

// WithWorkers sets the embedding concurrency
func WithWorkers(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the progress logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// New creates a Syncer. The embedder may be nil, in which case the
// embedding index is left alone and only keyword search works.
func New(st *store.Store, fetcher StarFetcher, emb embedder.Embedder, opts ...Option) *Syncer {
	s := &Syncer{
		store:    st,
		fetcher:  fetcher,
		embedder: emb,
		logger:   slog.Default(),
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync refreshes one user's cache. With force set, the existing cache
// and embedding index are dropped first so every record is re-stored
// and re-embedded. Repeating a Sync against unchanged upstream data
// reports everything as unchanged and writes nothing new.
func (s *Syncer) Sync(ctx context.Context, username string, force bool) (*Report, error) {
	if !s.lock.TryAcquire() {
		return nil, ErrSyncInProgress
	}
	defer s.lock.Release()

	start := time.Now()
	s.logger.Info("fetching starred repositories", "user", username, "force", force)

	records, err := s.fetcher.FetchStarred(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", username, err)
	}
	s.logger.Info("fetched starred listing", "user", username, "count", len(records))

	if force {
		if err := s.store.Invalidate(ctx, username); err != nil {
			return nil, fmt.Errorf("failed to invalidate cache: %w", err)
		}
	}

	merge, err := s.store.Merge(ctx, username, records)
	if err != nil {
		return nil, err
	}
	s.logger.Info("merged into cache",
		"user", username,
		"added", len(merge.Added),
		"updated", len(merge.Updated),
		"unchanged", len(merge.Unchanged),
		"removed", len(merge.Removed))

	report := &Report{
		User:  username,
		Merge: merge,
		Total: len(records),
	}

	if s.embedder != nil {
		s.refreshEmbeddings(ctx, username, records, report)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// refreshEmbeddings brings the embedding index up to date with the
// merged records. Failures are counted and logged but never abort the
// session; the affected records simply fall out of semantic search.
func (s *Syncer) refreshEmbeddings(ctx context.Context, username string, records []types.RepoRecord, report *Report) {
	var embedded, skipped, failed atomic.Int32

	semaphore := make(chan struct{}, s.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := range records {
		rec := records[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if err := s.embedRecord(gctx, username, &rec, &embedded, &skipped); err != nil {
				failed.Add(1)
				s.logger.Warn("embedding failed", "user", username, "repo", rec.Key(), "error", err)
			}
			return nil
		})
	}

	// Only context cancellation propagates; embedding errors are
	// swallowed above.
	if err := g.Wait(); err != nil {
		s.logger.Warn("embedding pass interrupted", "user", username, "error", err)
	}

	report.Embedded = int(embedded.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())

	s.logger.Info("embedding index refreshed",
		"user", username,
		"embedded", report.Embedded,
		"skipped", report.Skipped,
		"failed", report.Failed)
}

func (s *Syncer) embedRecord(ctx context.Context, username string, rec *types.RepoRecord, embedded, skipped *atomic.Int32) error {
	text := rec.EmbedText()
	textHash := types.HashText(text)

	stored, err := s.store.EmbeddingHash(ctx, username, rec.Key())
	if err != nil {
		return err
	}
	if stored == textHash {
		skipped.Add(1)
		return nil
	}

	emb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		return err
	}

	if err := s.store.UpsertEmbedding(ctx, username, rec.Key(), emb.Vector, emb.Provider, emb.Model, textHash); err != nil {
		return err
	}
	embedded.Add(1)
	return nil
}
