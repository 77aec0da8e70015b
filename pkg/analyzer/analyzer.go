// Package analyzer holds the contracts shared by the template analyzers.
package analyzer

import "context"

// ContentSource provides file content for analysis.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// SourceAnalyzer analyzes a set of files read through a ContentSource.
// The context carries cancellation and an optional progress Tracker.
type SourceAnalyzer[T any] interface {
	Analyze(ctx context.Context, files []string, src ContentSource) (T, error)
}
