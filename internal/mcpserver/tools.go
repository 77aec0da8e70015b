package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/reach"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
	"github.com/panbanda/deadroute/pkg/routes"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Template directories to analyze. Defaults to the current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// RoutesInput adds the defined route names.
type RoutesInput struct {
	AnalyzeInput
	RoutesFile string   `json:"routes_file,omitempty" jsonschema:"File listing defined route names (text, json, yaml or toml). Overrides the configured routes file."`
	Routes     []string `json:"routes,omitempty" jsonschema:"Defined route names, merged with the routes file and configuration."`
}

// ReachInput adds the entry-point templates.
type ReachInput struct {
	RoutesInput
	EntryPoints []string `json:"entry_points,omitempty" jsonschema:"Templates rendered directly by views. Defaults to the configured reach.entry_points."`
}

// graphEdge is one include or extends relationship.
type graphEdge struct {
	From string `json:"from" toon:"from"`
	To   string `json:"to" toon:"to"`
	Kind string `json:"kind" toon:"kind"`
}

type graphResult struct {
	Templates int         `json:"templates" toon:"templates"`
	Edges     []graphEdge `json:"edges" toon:"edges"`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// analyze runs one analyzer over every requested root.
func (s *Server) analyze(ctx context.Context, input AnalyzeInput) (*templates.Analyzer, error) {
	a := templates.New(templates.WithConfig(s.config))
	for _, root := range getPaths(input) {
		if _, err := a.AnalyzeAll(ctx, root); err != nil {
			return nil, err
		}
	}
	if a.Len() == 0 {
		return nil, errors.New("no template files found")
	}
	return a, nil
}

func (s *Server) defined(input RoutesInput) (templates.Set, error) {
	cfg := *s.config
	if input.RoutesFile != "" {
		cfg.Routes.File = input.RoutesFile
	}
	return routes.Defined(&cfg, input.Routes...)
}

// Tool handlers

func (s *Server) handleTemplateReferences(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyze(ctx, input)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(a.Summaries(), getFormat(input))
}

func (s *Server) handleUnusedRoutes(ctx context.Context, req *mcp.CallToolRequest, input RoutesInput) (*mcp.CallToolResult, any, error) {
	defined, err := s.defined(input)
	if err != nil {
		return toolError(err.Error())
	}
	if defined.Len() == 0 {
		return toolError("no defined route names: pass routes or routes_file, or configure routes.names")
	}

	a, err := s.analyze(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(a.Report(defined), getFormat(input.AnalyzeInput))
}

func (s *Server) handleTemplateGraph(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	a, err := s.analyze(ctx, input)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(graphResult{Templates: a.Len(), Edges: edges(a.Relationships())}, getFormat(input))
}

func (s *Server) handleTemplateReach(ctx context.Context, req *mcp.CallToolRequest, input ReachInput) (*mcp.CallToolResult, any, error) {
	entries := input.EntryPoints
	if len(entries) == 0 {
		entries = s.config.Reach.EntryPoints
	}

	defined, err := s.defined(input.RoutesInput)
	if err != nil {
		return toolError(err.Error())
	}

	a, err := s.analyze(ctx, input.AnalyzeInput)
	if err != nil {
		return toolError(err.Error())
	}

	result, err := reach.New(reach.WithEntryPoints(entries...)).Analyze(a, defined)
	if err != nil {
		return toolError(fmt.Sprintf("%v: pass entry_points or set reach.entry_points", err))
	}
	return toolResult(result, getFormat(input.AnalyzeInput))
}

// edges flattens the relationship graphs into a sorted edge list.
func edges(rels templates.Relationships) []graphEdge {
	var out []graphEdge
	for _, g := range []struct {
		kind  string
		graph map[string]templates.Set
	}{
		{reach.KindExtends, rels.Extends},
		{reach.KindInclude, rels.Includes},
	} {
		for _, from := range slices.Sorted(maps.Keys(g.graph)) {
			for _, to := range g.graph[from].Sorted() {
				out = append(out, graphEdge{From: from, To: to, Kind: g.kind})
			}
		}
	}
	return out
}
