package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ghstars/gh-stars/internal/embedder"
	"github.com/ghstars/gh-stars/internal/store"
	"github.com/ghstars/gh-stars/pkg/types"
)

// DefaultLimit caps result sets when the caller does not ask for a
// specific size.
const DefaultLimit = 30

// Request describes one search over cached stars.
type Request struct {
	// Users are the cached accounts to search. Multi-user requests
	// interleave results by score.
	Users []string

	// Query is the search text. Keyword mode splits it into terms;
	// semantic mode embeds it whole.
	Query string

	// Languages restricts results to these primary languages,
	// case-insensitively. Empty means no restriction.
	Languages []string

	// Semantic selects vector search instead of keyword matching.
	Semantic bool

	// Limit caps the number of results; 0 means DefaultLimit.
	Limit int
}

// Response carries ranked results. Degraded is set when a semantic
// request fell back to keyword matching because the embedding backend
// was unavailable.
type Response struct {
	Results  []types.SearchResult
	Degraded bool
}

// Searcher answers queries from the local cache only; it never talks
// to the network except to embed the query text in semantic mode.
type Searcher struct {
	store    *store.Store
	embedder embedder.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher
type Option func(*Searcher)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) { s.logger = logger }
}

// New creates a Searcher. A nil embedder disables semantic mode; such
// requests degrade to keyword search.
func New(st *store.Store, emb embedder.Embedder, opts ...Option) *Searcher {
	s := &Searcher{
		store:    st,
		embedder: emb,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs one query. Every requested user must have a cache;
// otherwise types.ErrCacheMissing is returned naming no results.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	if len(req.Users) == 0 {
		return nil, fmt.Errorf("no users to search")
	}
	if req.Query == "" {
		return nil, fmt.Errorf("empty query")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Fail before any ranking if a cache is missing, so partial
	// results never mask a user that was simply never fetched.
	for _, user := range req.Users {
		if _, err := s.store.LastSynced(ctx, user); err != nil {
			return nil, fmt.Errorf("user %s: %w", user, err)
		}
	}

	if req.Semantic {
		resp, err := s.searchSemantic(ctx, req, limit)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, types.ErrEmbeddingUnavailable) {
			return nil, err
		}
		s.logger.Warn("semantic search unavailable, falling back to keyword matching", "error", err)
		resp, kwErr := s.searchKeyword(ctx, req, limit)
		if kwErr != nil {
			return nil, kwErr
		}
		resp.Degraded = true
		return resp, nil
	}

	return s.searchKeyword(ctx, req, limit)
}

func (s *Searcher) searchSemantic(ctx context.Context, req Request, limit int) (*Response, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", types.ErrEmbeddingUnavailable)
	}

	queryEmb, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		if errors.Is(err, types.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}

	neighbors, err := s.store.NearestNeighborsMulti(ctx, req.Users, queryEmb.Vector, limit, req.Languages)
	if err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		rec, err := s.store.Get(ctx, n.User, n.Key)
		if err != nil {
			return nil, err
		}
		results = append(results, types.SearchResult{
			DisplayNumber: len(results) + 1,
			Record:        *rec,
			Score:         clampScore(n.Similarity),
			MatchedUser:   n.User,
		})
	}
	return &Response{Results: results}, nil
}

func (s *Searcher) searchKeyword(ctx context.Context, req Request, limit int) (*Response, error) {
	terms := queryTerms(req.Query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty query")
	}

	scored := make([]types.SearchResult, 0, 64)
	for _, user := range req.Users {
		records, err := s.store.Load(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", user, err)
		}
		for i := range records {
			rec := &records[i]
			if !languageAllowed(rec.Language, req.Languages) {
				continue
			}
			score, ok := scoreKeyword(rec, terms)
			if !ok {
				continue
			}
			scored = append(scored, types.SearchResult{
				Record:      *rec,
				Score:       score,
				MatchedUser: user,
			})
		}
	}

	sortResults(scored)
	if limit < len(scored) {
		scored = scored[:limit]
	}
	for i := range scored {
		scored[i].DisplayNumber = i + 1
	}
	return &Response{Results: scored}, nil
}

// List returns all cached records for the given users ordered by star
// time, most recent first. The numbering matches what search results
// would show for the same listing.
func (s *Searcher) List(ctx context.Context, users []string, languages []string) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, 128)
	for _, user := range users {
		records, err := s.store.Load(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", user, err)
		}
		for i := range records {
			rec := &records[i]
			if !languageAllowed(rec.Language, languages) {
				continue
			}
			results = append(results, types.SearchResult{
				Record:      *rec,
				MatchedUser: user,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if !a.Record.StarredAt.Equal(b.Record.StarredAt) {
			return a.Record.StarredAt.After(b.Record.StarredAt)
		}
		if a.Record.Key() != b.Record.Key() {
			return a.Record.Key() < b.Record.Key()
		}
		return a.MatchedUser < b.MatchedUser
	})

	for i := range results {
		results[i].DisplayNumber = i + 1
	}
	return results, nil
}

// sortResults orders by score, then stars, then key, then user, so
// the same cache state always yields the same ranking.
func sortResults(results []types.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Record.Stars != b.Record.Stars {
			return a.Record.Stars > b.Record.Stars
		}
		if a.Record.Key() != b.Record.Key() {
			return a.Record.Key() < b.Record.Key()
		}
		return a.MatchedUser < b.MatchedUser
	})
}

func clampScore(similarity float64) float64 {
	switch {
	case similarity < 0:
		return 0
	case similarity > 1:
		return 1
	default:
		return similarity
	}
}
