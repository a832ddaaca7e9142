//go:build purego

package sqlite

// Compiled with the purego tag for CGO-free builds:
//
//	CGO_ENABLED=0 go build -tags purego ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered for this build
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
