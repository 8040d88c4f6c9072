// Package syncer orchestrates fetch sessions: pull the complete
// starred listing from GitHub, merge it atomically into the local
// cache, and refresh the embedding index for records whose embeddable
// text changed. Embedding failures degrade semantic search but never
// fail the session.
package syncer
