package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrEmptyKey is returned by cache operations given an empty key.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrSnapshotPrefixRequired is returned when a snapshot request has no file prefix.
	ErrSnapshotPrefixRequired = errors.New("snapshot prefix is required")
)
