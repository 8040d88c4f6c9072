// Package store provides SQLite-based persistence for the star cache.
//
// One database holds every cached user. The tables are:
//   - users: cached GitHub accounts and their last sync time
//   - repos: starred repositories, keyed by (cached_for, owner/name)
//   - embeddings: one vector per repo, tagged with the hash of the
//     text it was computed from
//
// A fetch session merges into the repos table inside a single
// transaction, so a crash mid-merge never leaves a partial cache.
// Embeddings reference repos with ON DELETE CASCADE; removing a repo
// removes its vector.
//
// # Build Tags
//
// CGO build (sqlite_vec tag):
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// uses github.com/mattn/go-sqlite3 and runs nearest-neighbor queries
// inside SQLite via the sqlite-vec extension.
//
// Pure Go build (default, or purego tag):
//
//	CGO_ENABLED=0 go build
//
// uses modernc.org/sqlite and ranks vectors in Go. Slower on large
// collections but needs no C compiler.
package store
