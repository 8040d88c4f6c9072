//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package store

// Compiled without CGO. Uses the pure Go SQLite driver; cosine
// similarity is computed in Go instead of inside SQLite. Slower on
// very large star collections but needs no C compiler.
//
// Build command:
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
