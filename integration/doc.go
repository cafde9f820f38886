//go:build integration

// Package integration holds end-to-end tests for the archive pipeline.
//
// These tests exercise build, extract, and verify over larger corpora than
// the unit tests touch, including files past the compression heuristic's
// size threshold. Run with: go test -tags=integration ./integration/...
package integration
