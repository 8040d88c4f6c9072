package types

// SearchResult is one entry of a listing or search response. Display
// numbers are assigned 1..N in final output order and are valid only
// for the invocation that produced them; they are never persisted.
type SearchResult struct {
	DisplayNumber int
	Record        RepoRecord
	Score         float64 // normalized to [0,1]
	MatchedUser   string  // whose star list produced this result
}

// MergeReport describes the outcome of reconciling a fresh fetch with
// the cached collection. Keys in each slice are sorted for stable
// output; re-running a fetch against identical upstream data yields a
// report where only Unchanged is populated.
type MergeReport struct {
	Added     []string
	Updated   []string
	Unchanged []string
	Removed   []string
}

// Validate checks result invariants before the result is handed to a
// formatter.
func (sr *SearchResult) Validate() error {
	if sr.DisplayNumber < 1 {
		return ErrInvalidDisplayNumber
	}
	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidScore
	}
	return nil
}
