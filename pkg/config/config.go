package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for deadroute.
type Config struct {
	// Which files count as templates
	Templates TemplatesConfig `koanf:"templates" toml:"templates"`

	// Paths skipped during discovery
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Defined route names
	Routes RoutesConfig `koanf:"routes" toml:"routes"`

	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Reach    ReachConfig    `koanf:"reach" toml:"reach"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
}

// TemplatesConfig selects template files by extension.
type TemplatesConfig struct {
	Extensions []string `koanf:"extensions" toml:"extensions"`
}

// ExcludeConfig defines path exclusion rules, in gitignore syntax.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// RoutesConfig supplies the application's registered route names.
type RoutesConfig struct {
	Names []string `koanf:"names" toml:"names"`
	File  string   `koanf:"file" toml:"file"`
}

// AnalysisConfig controls extraction.
type AnalysisConfig struct {
	Workers int `koanf:"workers" toml:"workers"` // 0 = 2x NumCPU
}

// ReachConfig lists the templates rendered directly by views.
type ReachConfig struct {
	EntryPoints []string `koanf:"entry_points" toml:"entry_points"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, yaml, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultExtensions are the template file extensions scanned by default.
var DefaultExtensions = []string{".html", ".txt", ".xml", ".svg"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Extensions: slices.Clone(DefaultExtensions),
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".deadroute/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// ValidationError reports a config file that does not match the schema.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParserFor returns the koanf parser matching a file extension.
// Unknown extensions are read as TOML.
func ParserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), ParserFor(path)); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := validate(k.Raw()); err != nil {
		return nil, &ValidationError{Path: path, Err: err}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched in order in each search directory.
var configNames = []string{
	"deadroute.toml",
	"deadroute.yaml",
	"deadroute.yml",
	"deadroute.json",
	".deadroute.toml",
	".deadroute.yaml",
	".deadroute.yml",
	".deadroute.json",
}

// Find returns the first config file found under dir or dir/.deadroute.
func Find(dir string) (string, bool) {
	for _, d := range []string{dir, filepath.Join(dir, ".deadroute")} {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault loads the config at path, or the first one found in the
// current directory when path is empty, or the defaults when none exists.
// A config file that exists but cannot be loaded is an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		found, ok := Find(".")
		if !ok {
			return DefaultConfig(), nil
		}
		path = found
	}
	return Load(path)
}

// IsTemplate reports whether path has one of the configured template extensions.
func (c *Config) IsTemplate(path string) bool {
	return slices.Contains(c.Templates.Extensions, filepath.Ext(path))
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Templates.Extensions) == 0 {
		errs = append(errs, errors.New("templates.extensions must not be empty"))
	}
	for _, ext := range c.Templates.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("templates.extensions: %q must start with a dot", ext))
		}
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0 (got %d)", c.Analysis.Workers))
	}
	return errors.Join(errs...)
}
