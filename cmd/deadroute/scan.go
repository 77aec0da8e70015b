package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"refs"},
		Usage:     "List the route names, links, includes and extends of every template",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "links",
				Usage: "Show internal href links",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
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

	return formatter.Output(referencesTable(a, c.Bool("links")))
}

func referencesTable(a *templates.Analyzer, links bool) *output.Table {
	headers := []string{"Template", "URLs", "Includes", "Extends"}
	if links {
		headers = append(headers, "Links")
	}

	summaries := a.Summaries()
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{s.Template, join(s.URLs), join(s.Includes), join(s.Extends)}
		if s.Error != "" {
			row = []string{s.Template, "error: " + s.Error, "", ""}
		}
		if links {
			row = append(row, join(s.Hrefs))
		}
		rows = append(rows, row)
	}

	footer := make([]string, len(headers))
	footer[0] = fmt.Sprintf("%d templates", len(summaries))
	footer[1] = fmt.Sprintf("%d names", a.AllReferencedURLNames().Len())

	return output.NewTable("Template References", headers, rows, footer, summaries)
}

func join(items []string) string {
	return strings.Join(items, ", ")
}
