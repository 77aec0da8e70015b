// Package vcs provides read access to template trees stored in git.
package vcs

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens the repository rooted exactly at path.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens the repository containing path,
	// searching parent directories for .git.
	PlainOpenWithDetect(path string) (Repository, error)
}

// Repository provides access to the trees of a git repository.
type Repository interface {
	// Tree returns the tree of the commit that rev resolves to
	// (a branch, tag, hash or expression such as HEAD~2).
	Tree(rev string) (Tree, error)
	// RepoPath returns the root of the working tree.
	RepoPath() string
}

// Tree is a read-only snapshot of files at one commit.
type Tree interface {
	// Files lists every file path in the tree, slash-separated and
	// relative to the repository root.
	Files() ([]string, error)
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
}

// DefaultOpener returns the go-git backed opener.
func DefaultOpener() Opener {
	return NewGitOpener()
}
