package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "deadroute",
		Usage:   "Find route names no Django template references",
		Version: version,
		Description: `deadroute scans Django template trees for {% url %} tags, site-relative
links, {% include %} and {% extends %} tags, and reports which defined route
names no template references.

Global flags go before the command: deadroute -f json unused -r routes.txt templates/`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DEADROUTE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, yaml, toon, mermaid (graph only)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Print templates that could not be read or decoded",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the extraction cache even when the config enables it",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			unusedCmd(),
			graphCmd(),
			reachCmd(),
			watchCmd(),
			mcpCmd(),
			initCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}
