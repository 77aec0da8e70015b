// Package routes loads the set of route names an application defines.
//
// Route registration lives outside the template tree, so the names are
// supplied as a file. Supported formats:
//
//   - plain text: one name per line, blank lines and # comments ignored
//   - JSON or YAML: a top-level list, or a "routes" key holding a list
//     (or a "routes.names" list, so a deadroute config file also works)
//   - TOML: a "routes" list, or a [routes] table with a "names" list
package routes

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/deadroute/pkg/analyzer/templates"
	"github.com/panbanda/deadroute/pkg/config"
)

// ErrNoRoutes is returned when a structured file holds no route list.
var ErrNoRoutes = errors.New("no route list found")

// LoadError reports a route file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load routes %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the route names in path. The format is chosen by extension;
// anything other than .json, .yaml, .yml or .toml is read as plain text.
func Load(path string) (templates.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		names, err = parseYAML(data)
	case ".toml":
		names, err = parseTOML(path)
	default:
		names = ParseText(data)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return templates.NewSet(names...), nil
}

// ParseText reads one route name per line. Text after # is a comment.
func ParseText(data []byte) []string {
	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// parseYAML handles JSON too; a JSON document is valid YAML.
func parseYAML(data []byte) ([]string, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return namesFrom(doc)
}

func parseTOML(path string) ([]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, err
	}
	return namesFrom(k.Raw())
}

func namesFrom(doc any) ([]string, error) {
	switch v := doc.(type) {
	case []any:
		return toStrings(v)
	case map[string]any:
		switch r := v["routes"].(type) {
		case []any:
			return toStrings(r)
		case map[string]any:
			if list, ok := r["names"].([]any); ok {
				return toStrings(list)
			}
		}
	}
	return nil, ErrNoRoutes
}

func toStrings(list []any) ([]string, error) {
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("route %d: expected a string, got %T", i, item)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Defined returns the route names configured in cfg plus any extra names.
// cfg.Routes.File, when set, is loaded and merged with cfg.Routes.Names.
func Defined(cfg *config.Config, extra ...string) (templates.Set, error) {
	defined := templates.NewSet(extra...)
	if cfg == nil {
		return defined, nil
	}

	if cfg.Routes.File != "" {
		loaded, err := Load(cfg.Routes.File)
		if err != nil {
			return nil, err
		}
		defined.AddAll(loaded)
	}
	for _, name := range cfg.Routes.Names {
		if name = strings.TrimSpace(name); name != "" {
			defined.Add(name)
		}
	}
	return defined, nil
}
