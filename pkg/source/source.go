// Package source provides the places template content can be read from.
package source

import (
	"os"
	"sync"

	"github.com/panbanda/deadroute/internal/vcs"
	"github.com/panbanda/deadroute/pkg/analyzer"
)

var (
	_ analyzer.ContentSource = (*FilesystemSource)(nil)
	_ analyzer.ContentSource = (*TreeSource)(nil)
)

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements analyzer.ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements analyzer.ContentSource. Paths are slash-separated and
// relative to the repository root.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(path)
}

// MapSource serves content from memory, keyed by path.
type MapSource map[string][]byte

// Read implements analyzer.ContentSource.
func (m MapSource) Read(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, &os.PathError{Op: "read", Path: path, Err: os.ErrNotExist}
	}
	return data, nil
}
