package routes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadroute/pkg/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name:    "plain text",
			file:    "routes.txt",
			content: "home\n# admin pages\nadmin:index\n\n  contact  \nblog:detail # trailing comment\n",
			want:    []string{"admin:index", "blog:detail", "contact", "home"},
		},
		{
			name:    "no extension is text",
			file:    "ROUTES",
			content: "home\nhome\n",
			want:    []string{"home"},
		},
		{
			name:    "json list",
			file:    "routes.json",
			content: `["home", "contact", "admin"]`,
			want:    []string{"admin", "contact", "home"},
		},
		{
			name:    "json routes key",
			file:    "routes.json",
			content: `{"routes": ["home", "admin"]}`,
			want:    []string{"admin", "home"},
		},
		{
			name:    "yaml list",
			file:    "routes.yaml",
			content: "- home\n- blog:detail\n",
			want:    []string{"blog:detail", "home"},
		},
		{
			name:    "yaml routes key",
			file:    "routes.yml",
			content: "routes:\n  - home\n  - contact\n",
			want:    []string{"contact", "home"},
		},
		{
			name:    "yaml config shape",
			file:    "deadroute.yaml",
			content: "routes:\n  names:\n    - home\n",
			want:    []string{"home"},
		},
		{
			name:    "toml routes list",
			file:    "routes.toml",
			content: "routes = [\"home\", \"admin\"]\n",
			want:    []string{"admin", "home"},
		},
		{
			name:    "toml config table",
			file:    "deadroute.toml",
			content: "[routes]\nnames = [\"home\", \"contact\"]\n",
			want:    []string{"contact", "home"},
		},
		{
			name:    "empty list",
			file:    "routes.json",
			content: `[]`,
			want:    []string{},
		},
		{
			name:    "empty text",
			file:    "routes.txt",
			content: "# nothing yet\n",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		is      error
	}{
		{"json object without routes", "routes.json", `{"names": ["home"]}`, ErrNoRoutes},
		{"yaml scalar", "routes.yaml", "home\n", ErrNoRoutes},
		{"toml without routes", "routes.toml", "title = \"x\"\n", ErrNoRoutes},
		{"non-string entry", "routes.json", `["home", 3]`, nil},
		{"invalid json", "routes.json", `["home"`, nil},
		{"invalid toml", "routes.toml", "routes = [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, err := Load(path)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, path, loadErr.Path)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseText(t *testing.T) {
	got := ParseText([]byte("a\r\nb\n#c\n d # e\n"))
	assert.Equal(t, []string{"a", "b", "d"}, got)
}

func TestDefined(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes.File = writeFile(t, "routes.txt", "home\ncontact\n")
	cfg.Routes.Names = []string{"admin", " "}

	got, err := Defined(cfg, "extra")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "contact", "extra", "home"}, got.Sorted())
}

func TestDefined_NoSources(t *testing.T) {
	got, err := Defined(config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())

	got, err = Defined(nil, "home")
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, got.Sorted())
}

func TestDefined_BadFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes.File = filepath.Join(t.TempDir(), "missing.json")

	_, err := Defined(cfg)
	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}
