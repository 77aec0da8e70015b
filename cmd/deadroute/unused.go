package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
)

// errUnusedFound fails the command under --fail.
var errUnusedFound = errors.New("unused route names found")

func unusedCmd() *cli.Command {
	return &cli.Command{
		Name:      "unused",
		Aliases:   []string{"dead"},
		Usage:     "Report defined route names that no template references",
		ArgsUsage: "[path...]",
		Flags: append(routeFlags(),
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze templates as committed at this git revision (branch, tag, or hash)",
			},
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with an error when any route name is unused",
			},
		),
		Action: runUnusedCmd,
	}
}

func runUnusedCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	defined, err := definedRoutes(c, cfg)
	if err != nil {
		return err
	}
	if defined.Len() == 0 {
		return errors.New("no defined route names: pass --routes or --route, or set routes.names in the config")
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var a *templates.Analyzer
	if ref := c.String("ref"); ref != "" {
		a, err = analyzeRevision(c.Context, cfg, getPaths(c), ref, formatter)
	} else {
		a, err = analyzeRoots(c.Context, cfg, getPaths(c), formatter)
	}
	if err != nil {
		return err
	}
	if a.Len() == 0 {
		formatter.Warning("No template files found; every defined route is unused")
	}

	report := a.Report(defined)

	if err := formatter.Output(unusedReport(report)); err != nil {
		return err
	}

	if c.Bool("fail") && len(report.Unused) > 0 {
		return fmt.Errorf("%d of %d: %w", len(report.Unused), report.DefinedRoutes, errUnusedFound)
	}
	return nil
}

func unusedReport(r *templates.Report) *output.Report {
	summary := fmt.Sprintf("%d templates analyzed, %d defined routes, %d referenced, %d unused",
		r.TemplatesAnalyzed, r.DefinedRoutes, len(r.Referenced), len(r.Unused))

	sections := []output.Renderable{
		&output.Section{Title: "Summary", Content: summary},
		&output.Section{Title: "Unused Routes", Content: bulletList(r.Unused)},
	}
	if len(r.Undefined) > 0 {
		sections = append(sections, &output.Section{
			Title:   "Referenced But Not Defined",
			Content: bulletList(r.Undefined),
		})
	}
	if len(r.Failed) > 0 {
		rows := make([][]string, len(r.Failed))
		for i, f := range r.Failed {
			rows[i] = []string{f.Template, strings.TrimSpace(f.Error)}
		}
		sections = append(sections, output.NewTable("Failed Templates", []string{"Template", "Error"}, rows, nil, nil))
	}

	return &output.Report{
		Title:    "Dead Routes",
		Sections: sections,
		Data:     r,
	}
}
