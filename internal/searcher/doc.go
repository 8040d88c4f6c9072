// Package searcher answers keyword and semantic queries over the
// local star cache. Keyword matching requires every query term to
// appear in at least one record field; semantic mode embeds the query
// and ranks by cosine similarity, falling back to keyword matching
// when the embedding backend is unavailable. All orderings are
// deterministic for a given cache state.
package searcher
