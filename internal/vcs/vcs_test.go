package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestNewGitOpener(t *testing.T) {
	if NewGitOpener() == nil {
		t.Fatal("NewGitOpener() returned nil")
	}
	if DefaultOpener() == nil {
		t.Fatal("DefaultOpener() returned nil")
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should return error for non-existent path")
	}
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath, _ := initTestRepo(t)

	subDir := filepath.Join(repoPath, "templates", "nested")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	repo, err := NewGitOpener().PlainOpenWithDetect(subDir)
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error = %v", err)
	}
	if repo.RepoPath() != repoPath {
		t.Errorf("RepoPath() = %q, want %q", repo.RepoPath(), repoPath)
	}
}

func TestTree_FilesAndContent(t *testing.T) {
	repoPath, commitFiles := initTestRepo(t)

	commitFiles(map[string]string{
		"templates/base.html":  `{% url "home" %}`,
		"templates/about.html": `{% extends "base.html" %}`,
		"app/views.py":         "pass",
	}, "first")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	tree, err := repo.Tree("HEAD")
	if err != nil {
		t.Fatalf("Tree(HEAD) error = %v", err)
	}

	files, err := tree.Files()
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	want := []string{"app/views.py", "templates/about.html", "templates/base.html"}
	if len(files) != len(want) {
		t.Fatalf("Files() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, files[i], want[i])
		}
	}

	content, err := tree.File("templates/base.html")
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if string(content) != `{% url "home" %}` {
		t.Errorf("File() = %q", content)
	}

	if _, err := tree.File("templates/missing.html"); err == nil {
		t.Error("File() should fail for a path not in the tree")
	}
}

func TestTree_HistoricalRevision(t *testing.T) {
	repoPath, commitFiles := initTestRepo(t)

	commitFiles(map[string]string{"index.html": `{% url "old" %}`}, "first")
	commitFiles(map[string]string{"index.html": `{% url "new" %}`}, "second")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	tree, err := repo.Tree("HEAD~1")
	if err != nil {
		t.Fatalf("Tree(HEAD~1) error = %v", err)
	}
	content, err := tree.File("index.html")
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if string(content) != `{% url "old" %}` {
		t.Errorf("HEAD~1 content = %q, want the first commit", content)
	}

	// An empty revision means HEAD.
	tree, err = repo.Tree("")
	if err != nil {
		t.Fatalf("Tree(\"\") error = %v", err)
	}
	content, _ = tree.File("index.html")
	if string(content) != `{% url "new" %}` {
		t.Errorf("HEAD content = %q, want the second commit", content)
	}
}

func TestTree_UnknownRevision(t *testing.T) {
	repoPath, commitFiles := initTestRepo(t)
	commitFiles(map[string]string{"index.html": ""}, "first")

	repo, err := NewGitOpener().PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if _, err := repo.Tree("no-such-branch"); err == nil {
		t.Error("Tree() should fail for an unknown revision")
	}
}

// initTestRepo creates an empty repository and returns a helper that writes
// and commits files into it.
func initTestRepo(t *testing.T) (string, func(files map[string]string, msg string)) {
	t.Helper()
	repoPath := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(repoPath); err == nil {
		repoPath = resolved
	}
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	commit := func(files map[string]string, msg string) {
		t.Helper()
		w, err := repo.Worktree()
		if err != nil {
			t.Fatal(err)
		}
		for name, content := range files {
			path := filepath.Join(repoPath, name)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := w.Add(name); err != nil {
				t.Fatal(err)
			}
		}
		_, err = w.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test",
				Email: "test@example.com",
				When:  time.Now(),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return repoPath, commit
}
