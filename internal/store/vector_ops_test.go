package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghstars/gh-stars/pkg/types"
)

func TestSerializeDeserializeVector(t *testing.T) {
	original := []float32{0.1, -0.5, 0.9, 0}

	blob := SerializeVector(original)
	assert.Len(t, blob, len(original)*4)

	restored := DeserializeVector(blob)
	assert.Equal(t, original, restored)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Mismatched dimensions and zero vectors score zero
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func seedEmbeddings(t *testing.T, s *Store, user string) {
	ctx := context.Background()

	repos := []types.RepoRecord{
		testRepo("alice", "alpha"),
		testRepo("bob", "beta"),
		testRepo("carol", "gamma"),
	}
	repos[1].Language = "Rust"
	_, err := s.Merge(ctx, user, repos)
	require.NoError(t, err)

	require.NoError(t, s.UpsertEmbedding(ctx, user, "alice/alpha", []float32{1, 0, 0}, "local", "test", "h1"))
	require.NoError(t, s.UpsertEmbedding(ctx, user, "bob/beta", []float32{0, 1, 0}, "local", "test", "h2"))
	require.NoError(t, s.UpsertEmbedding(ctx, user, "carol/gamma", []float32{0.707, 0.707, 0}, "local", "test", "h3"))
}

func TestNearestNeighborsRanking(t *testing.T) {
	s := setupTestStore(t)
	seedEmbeddings(t, s, "octocat")

	hits, err := s.NearestNeighbors(context.Background(), "octocat", []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "alice/alpha", hits[0].Key)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "carol/gamma", hits[1].Key)
	assert.Equal(t, "bob/beta", hits[2].Key)
}

func TestNearestNeighborsDeterministicTieBreak(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{
		testRepo("zed", "zeta"),
		testRepo("ada", "delta"),
	})
	require.NoError(t, err)

	// Identical vectors, so ordering falls back to the repo key
	require.NoError(t, s.UpsertEmbedding(ctx, "octocat", "zed/zeta", []float32{1, 0}, "local", "test", "h1"))
	require.NoError(t, s.UpsertEmbedding(ctx, "octocat", "ada/delta", []float32{1, 0}, "local", "test", "h2"))

	for i := 0; i < 5; i++ {
		hits, err := s.NearestNeighbors(ctx, "octocat", []float32{1, 0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "ada/delta", hits[0].Key)
		assert.Equal(t, "zed/zeta", hits[1].Key)
	}
}

func TestNearestNeighborsLanguageFilter(t *testing.T) {
	s := setupTestStore(t)
	seedEmbeddings(t, s, "octocat")

	hits, err := s.NearestNeighbors(context.Background(), "octocat", []float32{0, 1, 0}, 10, []string{"rust"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bob/beta", hits[0].Key)
}

func TestNearestNeighborsLimit(t *testing.T) {
	s := setupTestStore(t)
	seedEmbeddings(t, s, "octocat")
	ctx := context.Background()

	hits, err := s.NearestNeighbors(ctx, "octocat", []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = s.NearestNeighbors(ctx, "octocat", []float32{1, 0, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNearestNeighborsMultiUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedEmbeddings(t, s, "octocat")

	_, err := s.Merge(ctx, "hubber", []types.RepoRecord{testRepo("dave", "epsilon")})
	require.NoError(t, err)
	require.NoError(t, s.UpsertEmbedding(ctx, "hubber", "dave/epsilon", []float32{1, 0, 0}, "local", "test", "h4"))

	hits, err := s.NearestNeighborsMulti(ctx, []string{"octocat", "hubber"}, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Both top hits have similarity 1.0; key order decides
	assert.Equal(t, "alice/alpha", hits[0].Key)
	assert.Equal(t, "octocat", hits[0].User)
	assert.Equal(t, "dave/epsilon", hits[1].Key)
	assert.Equal(t, "hubber", hits[1].User)
}

func TestNearestNeighborsSkipsDimensionMismatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{
		testRepo("alice", "alpha"),
		testRepo("bob", "beta"),
	})
	require.NoError(t, err)

	require.NoError(t, s.UpsertEmbedding(ctx, "octocat", "alice/alpha", []float32{1, 0, 0}, "local", "test", "h1"))
	require.NoError(t, s.UpsertEmbedding(ctx, "octocat", "bob/beta", []float32{1, 0}, "local", "old", "h2"))

	hits, err := s.NearestNeighbors(ctx, "octocat", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice/alpha", hits[0].Key)
}
