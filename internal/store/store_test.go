package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghstars/gh-stars/pkg/types"
)

func setupTestStore(t *testing.T) *Store {
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRepo(owner, name string) types.RepoRecord {
	return types.RepoRecord{
		Owner:       owner,
		Name:        name,
		Description: "a test repository",
		Language:    "Go",
		Stars:       42,
		URL:         "https://github.com/" + owner + "/" + name,
		Topics:      []string{"testing"},
		CreatedAt:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		PushedAt:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		StarredAt:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := setupTestStore(t)

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLoadMissingCache(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, types.ErrCacheMissing)
}

func TestMergeInitialFetch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	fetched := []types.RepoRecord{
		testRepo("bob", "beta"),
		testRepo("alice", "alpha"),
	}
	report, err := s.Merge(ctx, "octocat", fetched)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice/alpha", "bob/beta"}, report.Added)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Unchanged)
	assert.Empty(t, report.Removed)

	records, err := s.Load(ctx, "octocat")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMergeIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	fetched := []types.RepoRecord{testRepo("alice", "alpha")}
	_, err := s.Merge(ctx, "octocat", fetched)
	require.NoError(t, err)

	report, err := s.Merge(ctx, "octocat", fetched)
	require.NoError(t, err)
	assert.Empty(t, report.Added)
	assert.Empty(t, report.Updated)
	assert.Equal(t, []string{"alice/alpha"}, report.Unchanged)
	assert.Empty(t, report.Removed)
}

func TestMergeDetectsChange(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := testRepo("alice", "alpha")
	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{rec})
	require.NoError(t, err)

	rec.Stars = 100
	report, err := s.Merge(ctx, "octocat", []types.RepoRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice/alpha"}, report.Updated)

	got, err := s.Get(ctx, "octocat", "alice/alpha")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Stars)
}

func TestMergeRemovesUnstarred(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{
		testRepo("alice", "alpha"),
		testRepo("bob", "beta"),
	})
	require.NoError(t, err)

	report, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob/beta"}, report.Removed)

	_, err = s.Get(ctx, "octocat", "bob/beta")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMergeRemovalDropsEmbedding(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)

	err = s.UpsertEmbedding(ctx, "octocat", "alice/alpha", []float32{1, 0, 0}, "local", "test", "hash")
	require.NoError(t, err)

	_, err = s.Merge(ctx, "octocat", []types.RepoRecord{})
	require.NoError(t, err)

	count, err := s.EmbeddingCount(ctx, "octocat")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMergeDuplicateKey(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Merge(context.Background(), "octocat", []types.RepoRecord{
		testRepo("alice", "alpha"),
		testRepo("alice", "alpha"),
	})
	assert.ErrorIs(t, err, types.ErrMergeConflict)
}

func TestMergeKeepsUsersIndependent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)
	_, err = s.Merge(ctx, "hubber", []types.RepoRecord{testRepo("bob", "beta")})
	require.NoError(t, err)

	records, err := s.Load(ctx, "octocat")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice/alpha", records[0].Key())

	_, err = s.Get(ctx, "octocat", "bob/beta")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := testRepo("alice", "alpha")
	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{rec})
	require.NoError(t, err)

	got, err := s.Get(ctx, "octocat", "alice/alpha")
	require.NoError(t, err)
	assert.Equal(t, rec.Description, got.Description)
	assert.Equal(t, rec.Language, got.Language)
	assert.Equal(t, rec.Topics, got.Topics)
	assert.True(t, rec.StarredAt.Equal(got.StarredAt))
	assert.Equal(t, rec.ContentHash(), got.ContentHash())
}

func TestInvalidate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)

	require.NoError(t, s.Invalidate(ctx, "octocat"))

	_, err = s.Load(ctx, "octocat")
	assert.ErrorIs(t, err, types.ErrCacheMissing)
}

func TestListUsers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{
		testRepo("alice", "alpha"),
		testRepo("bob", "beta"),
	})
	require.NoError(t, err)
	_, err = s.Merge(ctx, "hubber", []types.RepoRecord{testRepo("carol", "gamma")})
	require.NoError(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "hubber", users[0].Username)
	assert.Equal(t, 1, users[0].RepoCount)
	assert.Equal(t, "octocat", users[1].Username)
	assert.Equal(t, 2, users[1].RepoCount)
	assert.False(t, users[0].LastSynced.IsZero())
}

func TestEmbeddingHashTracksUpserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)

	hash, err := s.EmbeddingHash(ctx, "octocat", "alice/alpha")
	require.NoError(t, err)
	assert.Empty(t, hash)

	err = s.UpsertEmbedding(ctx, "octocat", "alice/alpha", []float32{1, 0}, "local", "test", "h1")
	require.NoError(t, err)

	hash, err = s.EmbeddingHash(ctx, "octocat", "alice/alpha")
	require.NoError(t, err)
	assert.Equal(t, "h1", hash)

	err = s.UpsertEmbedding(ctx, "octocat", "alice/alpha", []float32{0, 1}, "local", "test", "h2")
	require.NoError(t, err)

	hash, err = s.EmbeddingHash(ctx, "octocat", "alice/alpha")
	require.NoError(t, err)
	assert.Equal(t, "h2", hash)
}

func TestUpsertEmbeddingRejectsEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Merge(ctx, "octocat", []types.RepoRecord{testRepo("alice", "alpha")})
	require.NoError(t, err)

	err = s.UpsertEmbedding(ctx, "octocat", "alice/alpha", nil, "local", "test", "h")
	assert.Error(t, err)
}
