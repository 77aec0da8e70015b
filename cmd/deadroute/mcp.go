package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes deadroute's
template analysis as tools that LLM clients can invoke.

To register it with an MCP client, add to its config:
  {
    "mcpServers": {
      "deadroute": {
        "command": "deadroute",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - template_references   Route names, links, includes and extends per template
  - unused_routes         Defined route names no template references
  - template_graph        Include and extends edges
  - template_reach        Templates no entry point reaches`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry server.json",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, cfg).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
