package store

import "time"

// File records the last processed version of a source file.
type File struct {
	ID            int64
	Path          string
	Language      string
	Hash          string
	LastProcessed time.Time
}

// Result is one cached transform output. Key identifies the input (source,
// language, removal request and tool version); FileID is set when the
// result came from a file on disk.
type Result struct {
	ID              int64
	Key             string
	FileID          *int64
	Output          []byte
	RemovedBindings []string
	RemovedExports  []string
	CreatedAt       time.Time
}
