package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ghstars/gh-stars/internal/store"
	"github.com/ghstars/gh-stars/pkg/types"
)

// Resolver turns a user-supplied repository reference into a cached
// record. A reference is either an "owner/name" key or the display
// number of an entry in the current listing.
type Resolver struct {
	store *store.Store
}

// New creates a Resolver
func New(st *store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve looks up ref for the given users. listing is the result set
// the display numbers were assigned against; pass nil when no listing
// exists in this session, in which case numeric references fail with
// types.ErrStaleReference rather than guessing.
func (r *Resolver) Resolve(ctx context.Context, users []string, ref string, listing []types.SearchResult) (*types.RepoRecord, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("%w: empty reference", types.ErrNotFound)
	}

	if n, err := strconv.Atoi(ref); err == nil {
		return resolveNumber(n, listing)
	}

	owner, name, ok := types.SplitKey(ref)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is not an owner/name reference", types.ErrNotFound, ref)
	}
	return r.resolveKey(ctx, users, owner+"/"+name)
}

// resolveNumber maps a display number back to the listing it came
// from. Numbers are only meaningful against the listing that produced
// them; anything else is a stale reference.
func resolveNumber(n int, listing []types.SearchResult) (*types.RepoRecord, string, error) {
	if len(listing) == 0 {
		return nil, "", fmt.Errorf("%w: no listing in this session, reference by owner/name", types.ErrStaleReference)
	}
	if n < 1 || n > len(listing) {
		return nil, "", fmt.Errorf("%w: %d is outside the current listing (1-%d)", types.ErrStaleReference, n, len(listing))
	}

	result := listing[n-1]
	rec := result.Record
	return &rec, result.MatchedUser, nil
}

func (r *Resolver) resolveKey(ctx context.Context, users []string, key string) (*types.RepoRecord, string, error) {
	for _, user := range users {
		rec, err := r.store.Get(ctx, user, key)
		if err == nil {
			return rec, user, nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: %s", types.ErrNotFound, key)
}
