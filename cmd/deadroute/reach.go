package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/reach"
)

func reachCmd() *cli.Command {
	return &cli.Command{
		Name:      "reach",
		Aliases:   []string{"orphans"},
		Usage:     "Find templates no entry-point template reaches through include or extends",
		ArgsUsage: "[path...]",
		Flags: append(routeFlags(),
			&cli.StringSliceFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   "Template rendered directly by a view (repeatable); defaults to reach.entry_points",
			},
		),
		Action: runReachCmd,
	}
}

func runReachCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	entries := c.StringSlice("entry")
	if len(entries) == 0 {
		entries = cfg.Reach.EntryPoints
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: pass --entry or set reach.entry_points in the config", reach.ErrNoEntryPoints)
	}

	defined, err := definedRoutes(c, cfg)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	a, err := analyzeRoots(c.Context, cfg, getPaths(c), formatter)
	if err != nil {
		return err
	}
	if a.Len() == 0 {
		formatter.Warning("No template files found")
		return nil
	}

	result, err := reach.New(reach.WithEntryPoints(entries...)).Analyze(a, defined)
	if err != nil {
		return err
	}
	if len(result.MissingEntries) == len(result.EntryPoints) {
		return errors.New("no entry point matched an analyzed template")
	}
	for _, name := range result.MissingEntries {
		formatter.Warning("Entry point %q matched no template", name)
	}

	return formatter.Output(reachReport(result))
}

func reachReport(r *reach.Result) *output.Report {
	summary := fmt.Sprintf("%d entry points, %d reachable templates, %d unreachable",
		len(r.EntryPoints)-len(r.MissingEntries), len(r.Reachable), len(r.Unreachable))

	sections := []output.Renderable{
		&output.Section{Title: "Summary", Content: summary},
		&output.Section{Title: "Unreachable Templates", Content: bulletList(r.Unreachable)},
	}
	if len(r.Shadowed) > 0 {
		sections = append(sections, &output.Section{
			Title:   "Routes Referenced Only From Unreachable Templates",
			Content: bulletList(r.Shadowed),
		})
	}
	if len(r.Unresolved) > 0 {
		rows := make([][]string, len(r.Unresolved))
		for i, ref := range r.Unresolved {
			rows[i] = []string{ref.From, ref.Kind, ref.Name}
		}
		sections = append(sections, output.NewTable("Unresolved References",
			[]string{"Template", "Kind", "Name"}, rows, nil, nil))
	}
	if len(r.Cycles) > 0 {
		lines := make([]string, len(r.Cycles))
		for i, cycle := range r.Cycles {
			lines[i] = strings.Join(cycle, " -> ")
		}
		sections = append(sections, &output.Section{Title: "Cycles", Content: bulletList(lines)})
	}

	return &output.Report{
		Title:    "Template Reachability",
		Sections: sections,
		Data:     r,
	}
}
