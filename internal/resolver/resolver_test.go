package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghstars/gh-stars/internal/store"
	"github.com/ghstars/gh-stars/pkg/types"
)

func seed(t *testing.T) *store.Store {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	_, err = s.Merge(ctx, "octocat", []types.RepoRecord{{
		Owner: "alice", Name: "alpha", URL: "u",
		StarredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	_, err = s.Merge(ctx, "hubber", []types.RepoRecord{{
		Owner: "bob", Name: "beta", URL: "u",
		StarredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	return s
}

func TestResolveByKey(t *testing.T) {
	r := New(seed(t))

	rec, user, err := r.Resolve(context.Background(), []string{"octocat"}, "alice/alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice/alpha", rec.Key())
	assert.Equal(t, "octocat", user)
}

func TestResolveByKeySearchesUsersInOrder(t *testing.T) {
	r := New(seed(t))

	rec, user, err := r.Resolve(context.Background(), []string{"octocat", "hubber"}, "bob/beta", nil)
	require.NoError(t, err)
	assert.Equal(t, "bob/beta", rec.Key())
	assert.Equal(t, "hubber", user)
}

func TestResolveUnknownKey(t *testing.T) {
	r := New(seed(t))

	_, _, err := r.Resolve(context.Background(), []string{"octocat"}, "ghost/nope", nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolveMalformedReference(t *testing.T) {
	r := New(seed(t))

	for _, ref := range []string{"", "noslash", "a/b/c", "/name", "owner/"} {
		_, _, err := r.Resolve(context.Background(), []string{"octocat"}, ref, nil)
		assert.ErrorIs(t, err, types.ErrNotFound, "ref %q", ref)
	}
}

func TestResolveByDisplayNumber(t *testing.T) {
	r := New(seed(t))
	listing := []types.SearchResult{
		{DisplayNumber: 1, Record: types.RepoRecord{Owner: "alice", Name: "alpha"}, MatchedUser: "octocat"},
		{DisplayNumber: 2, Record: types.RepoRecord{Owner: "bob", Name: "beta"}, MatchedUser: "hubber"},
	}

	rec, user, err := r.Resolve(context.Background(), []string{"octocat", "hubber"}, "2", listing)
	require.NoError(t, err)
	assert.Equal(t, "bob/beta", rec.Key())
	assert.Equal(t, "hubber", user)
}

func TestResolveNumberWithoutListing(t *testing.T) {
	r := New(seed(t))

	_, _, err := r.Resolve(context.Background(), []string{"octocat"}, "1", nil)
	assert.ErrorIs(t, err, types.ErrStaleReference)
}

func TestResolveNumberOutOfRange(t *testing.T) {
	r := New(seed(t))
	listing := []types.SearchResult{
		{DisplayNumber: 1, Record: types.RepoRecord{Owner: "alice", Name: "alpha"}, MatchedUser: "octocat"},
	}

	for _, ref := range []string{"0", "2", "-1"} {
		_, _, err := r.Resolve(context.Background(), []string{"octocat"}, ref, listing)
		assert.ErrorIs(t, err, types.ErrStaleReference, "ref %q", ref)
	}
}
