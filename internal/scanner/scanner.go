// Package scanner discovers template files under a root directory.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/deadroute/pkg/config"
)

// ErrNotDirectory is wrapped by RootError when the root is a file.
var ErrNotDirectory = errors.New("not a directory")

// RootError means discovery could not start: the root is missing,
// unreadable, or not a directory. No templates were listed.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("template root %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// WalkError means a directory below the root could not be listed.
// The whole scan is abandoned rather than returning a partial listing.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// Scanner finds template files in a directory. It is safe for concurrent
// use; each ScanDir builds its own exclusion rules.
type Scanner struct {
	config *config.Config
	mu     sync.RWMutex
	last   *rules
}

// NewScanner creates a new template scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// rules holds the exclusion matchers for one template root. Configured
// patterns match paths relative to the root. Patterns from .gitignore files
// match paths relative to the repository, so base is prepended first.
type rules struct {
	config gitignore.Matcher
	git    gitignore.Matcher
	base   []string
}

// newRules combines configured patterns, excluded directory names and, when
// enabled and repoRoot is set, the .gitignore files under repoRoot. base is
// the slash-separated location of the template root inside repoRoot.
func (s *Scanner) newRules(repoRoot, base string) *rules {
	r := &rules{}

	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(strings.TrimSuffix(dir, "/")+"/", nil))
	}
	if len(patterns) > 0 {
		r.config = gitignore.NewMatcher(patterns)
	}

	if s.config.Exclude.Gitignore && repoRoot != "" {
		gitPatterns, err := gitignore.ReadPatterns(osfs.New(repoRoot), nil)
		if err == nil && len(gitPatterns) > 0 {
			r.git = gitignore.NewMatcher(gitPatterns)
			base = strings.Trim(filepath.ToSlash(base), "/")
			if base != "" && base != "." {
				r.base = strings.Split(base, "/")
			}
		}
	}
	return r
}

func (r *rules) match(parts []string, isDir bool) bool {
	if r.config != nil && r.config.Match(parts, isDir) {
		return true
	}
	if r.git != nil {
		full := append(r.base[:len(r.base):len(r.base)], parts...)
		return r.git.Match(full, isDir)
	}
	return false
}

// excluded checks relPath and each of its parent directories.
func (r *rules) excluded(relPath string, isDir bool) bool {
	if r == nil || relPath == "" || relPath == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for i := 1; i < len(parts); i++ {
		if r.match(parts[:i], true) {
			return true
		}
	}
	return r.match(parts, isDir)
}

// ScanDir recursively lists template files under root, sorted by path.
// A missing or non-directory root yields a *RootError; an unreadable
// subdirectory yields a *WalkError. In both cases no paths are returned.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RootError{Path: root, Err: ErrNotDirectory}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}

	var r *rules
	if gitRoot := findGitRoot(absRoot); gitRoot != "" {
		base, _ := filepath.Rel(gitRoot, absRoot)
		r = s.newRules(gitRoot, base)
	} else {
		r = s.newRules("", "")
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return &RootError{Path: root, Err: err}
			}
			return &WalkError{Path: path, Err: err}
		}

		relPath, _ := filepath.Rel(root, path)

		// Symlinks escaping the root are skipped.
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if relPath == "." {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(relPath), "/")
		if d.IsDir() {
			if r.match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if r.match(parts, false) {
			return nil
		}
		if s.config.IsTemplate(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	s.mu.Lock()
	s.last = r
	s.mu.Unlock()

	sort.Strings(files)
	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterTemplates keeps the slash-separated paths (for example git tree
// entries) that sit under prefix, carry a template extension and are not
// excluded. An empty prefix keeps the whole tree. Paths are relative to
// repoRoot, whose .gitignore files apply when gitignore exclusion is on.
func (s *Scanner) FilterTemplates(paths []string, prefix, repoRoot string) []string {
	prefix = strings.Trim(filepath.ToSlash(prefix), "/")
	if prefix == "." {
		prefix = ""
	}
	r := s.newRules(repoRoot, prefix)

	var out []string
	for _, p := range paths {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(p, prefix+"/")
		}
		if !s.config.IsTemplate(p) || r.excluded(rel, false) {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Excluded reports whether relPath, relative to the root of the last
// ScanDir, matches the exclusion rules. Parent directories are checked too.
func (s *Scanner) Excluded(relPath string, isDir bool) bool {
	s.mu.RLock()
	r := s.last
	s.mu.RUnlock()
	return r.excluded(relPath, isDir)
}
