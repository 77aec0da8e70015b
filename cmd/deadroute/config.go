package main

import (
	"fmt"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidateCmd,
			},
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: runConfigShowCmd,
			},
		},
	}
}

// configSource returns the file the global --config flag or the search
// selects, or "" for the defaults.
func configSource(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	path, _ := config.Find(".")
	return path
}

func runConfigValidateCmd(c *cli.Context) error {
	source := configSource(c)
	msg := messages(c)
	if _, err := loadConfig(c); err != nil {
		msg.Error("Configuration validation failed:")
		fmt.Fprintf(msg.Writer(), "  - %s\n", err)
		return err
	}

	if source != "" {
		msg.Success("Configuration valid: %s", source)
	} else {
		msg.Warning("No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if source := configSource(c); source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
