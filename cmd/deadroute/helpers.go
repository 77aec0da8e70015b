package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/cache"
	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/internal/progress"
	"github.com/panbanda/deadroute/internal/scanner"
	"github.com/panbanda/deadroute/internal/vcs"
	"github.com/panbanda/deadroute/pkg/analyzer"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
	"github.com/panbanda/deadroute/pkg/config"
	"github.com/panbanda/deadroute/pkg/routes"
	"github.com/panbanda/deadroute/pkg/source"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig loads the config file and applies the global flags over it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	color.NoColor = color.NoColor || !cfg.Output.Color
	return cfg, nil
}

// newFormatter writes results to --output or stdout and status messages to
// the app's error writer.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	f, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
	if err != nil {
		return nil, err
	}
	f.SetStatus(c.App.ErrWriter)
	return f, nil
}

// messages writes plain status lines to the app writer.
func messages(c *cli.Context) *output.Formatter {
	return output.NewWriterFormatter(output.FormatText, c.App.Writer, !c.Bool("no-color") && !color.NoColor)
}

// analyzeRoots runs one analyzer over every root, reporting progress on
// stderr. Discovery failures abort the run.
func analyzeRoots(ctx context.Context, cfg *config.Config, roots []string, f *output.Formatter) (*templates.Analyzer, error) {
	c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
	if err != nil {
		return nil, err
	}
	a := templates.New(templates.WithConfig(cfg), templates.WithCache(c))

	tracker := progress.NewSpinner("Analyzing templates...")
	ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(tracker.Func()))
	for _, root := range roots {
		if _, err := a.AnalyzeAll(ctx, root); err != nil {
			tracker.FinishError(err)
			return nil, fmt.Errorf("failed to analyze %s: %w", root, err)
		}
	}
	tracker.FinishSuccess()

	reportFailures(cfg, a, f)
	return a, nil
}

// analyzeRevision analyzes the templates under each root as committed at
// rev, reading contents from git instead of the working tree.
func analyzeRevision(ctx context.Context, cfg *config.Config, roots []string, rev string, f *output.Formatter) (*templates.Analyzer, error) {
	a := templates.New(templates.WithConfig(cfg))

	for _, root := range roots {
		repo, err := vcs.DefaultOpener().PlainOpenWithDetect(root)
		if err != nil {
			return nil, fmt.Errorf("failed to open git repository for %s: %w", root, err)
		}
		tree, err := repo.Tree(rev)
		if err != nil {
			return nil, err
		}

		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", root, err)
		}
		repoRoot := resolvePath(repo.RepoPath())
		prefix, err := filepath.Rel(repoRoot, resolvePath(absRoot))
		if err != nil {
			return nil, fmt.Errorf("%s is outside the repository: %w", root, err)
		}

		spinner := progress.NewSpinner("Listing " + rev + "...")
		files, err := tree.Files()
		spinner.FinishSuccess()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", rev, err)
		}

		selected := scanner.NewScanner(cfg).FilterTemplates(files, prefix, repoRoot)
		if _, err := a.Analyze(ctx, selected, source.NewTree(tree)); err != nil {
			return nil, err
		}
	}

	reportFailures(cfg, a, f)
	return a, nil
}

func resolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// reportFailures warns about unreadable templates, listing them in
// verbose mode.
func reportFailures(cfg *config.Config, a *templates.Analyzer, f *output.Formatter) {
	failed := a.Failed()
	if len(failed) == 0 {
		return
	}
	if !cfg.Output.Verbose {
		f.Warning("%d templates could not be analyzed (use --verbose for details)", len(failed))
		return
	}
	for _, rec := range failed {
		f.Warning("%s: %s", rec.Template, rec.Error)
	}
}

// definedRoutes merges the --routes file and --route names with the
// configured routes.
func definedRoutes(c *cli.Context, cfg *config.Config) (templates.Set, error) {
	merged := *cfg
	if file := c.String("routes"); file != "" {
		merged.Routes.File = file
	}
	return routes.Defined(&merged, c.StringSlice("route")...)
}

func routeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "routes",
			Aliases: []string{"r"},
			Usage:   "File listing defined route names (text, json, yaml, or toml)",
		},
		&cli.StringSliceFlag{
			Name:  "route",
			Usage: "Defined route name (repeatable)",
		},
	}
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return "  - " + strings.Join(items, "\n  - ")
}

// sanitizeID replaces non-alphanumeric characters for Mermaid diagram IDs.
func sanitizeID(id string) string {
	var result strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result.WriteRune(c)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}
