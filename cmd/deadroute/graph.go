package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/reach"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Show the include and extends relationships between templates",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Value: "all",
				Usage: "Edges to show: all, include, or extends",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	kind := c.String("kind")
	if kind != "all" && kind != reach.KindInclude && kind != reach.KindExtends {
		return fmt.Errorf("--kind must be all, include, or extends (got %q)", kind)
	}

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

	return formatter.Output(newTemplateGraph(a.Relationships(), kind))
}

// graphEdge is one include or extends tag.
type graphEdge struct {
	From string `json:"from" yaml:"from" toon:"from"`
	To   string `json:"to" yaml:"to" toon:"to"`
	Kind string `json:"kind" yaml:"kind" toon:"kind"`
}

// templateGraph renders relationships as a table or a Mermaid flowchart.
type templateGraph struct {
	Edges []graphEdge `json:"edges" yaml:"edges" toon:"edges"`
}

func newTemplateGraph(rels templates.Relationships, kind string) *templateGraph {
	g := &templateGraph{Edges: []graphEdge{}}
	if kind == "all" || kind == reach.KindExtends {
		g.add(reach.KindExtends, rels.Extends)
	}
	if kind == "all" || kind == reach.KindInclude {
		g.add(reach.KindInclude, rels.Includes)
	}
	return g
}

func (g *templateGraph) add(kind string, edges map[string]templates.Set) {
	for _, from := range slices.Sorted(maps.Keys(edges)) {
		for _, to := range edges[from].Sorted() {
			g.Edges = append(g.Edges, graphEdge{From: from, To: to, Kind: kind})
		}
	}
}

func (g *templateGraph) table() *output.Table {
	rows := make([][]string, len(g.Edges))
	for i, e := range g.Edges {
		rows[i] = []string{e.From, e.Kind, e.To}
	}
	return output.NewTable("Template Graph", []string{"Template", "Kind", "Target"}, rows,
		[]string{fmt.Sprintf("%d edges", len(g.Edges)), "", ""}, nil)
}

func (g *templateGraph) RenderData() any {
	return g
}

func (g *templateGraph) RenderText(w io.Writer, colored bool) error {
	return g.table().RenderText(w, colored)
}

func (g *templateGraph) RenderMarkdown(w io.Writer) error {
	if err := g.table().RenderMarkdown(w); err != nil {
		return err
	}
	fmt.Fprintln(w, "```mermaid")
	if err := g.RenderMermaid(w); err != nil {
		return err
	}
	fmt.Fprintln(w, "```")
	return nil
}

// RenderMermaid writes a flowchart; extends edges are dotted.
func (g *templateGraph) RenderMermaid(w io.Writer) error {
	fmt.Fprintln(w, "graph TD")

	ids := make(map[string]string)
	taken := make(map[string]bool)
	node := func(name string) string {
		if id, ok := ids[name]; ok {
			return id
		}
		base := sanitizeID(name)
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		ids[name] = id
		taken[id] = true
		fmt.Fprintf(w, "    %s[%q]\n", id, name)
		return id
	}

	for _, e := range g.Edges {
		from, to := node(e.From), node(e.To)
		arrow := "-->"
		if e.Kind == reach.KindExtends {
			arrow = "-.->"
		}
		if _, err := fmt.Fprintf(w, "    %s %s %s\n", from, arrow, to); err != nil {
			return err
		}
	}
	return nil
}
