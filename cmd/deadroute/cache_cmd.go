package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/cache"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached extraction result",
				Action: runCacheClearCmd,
			},
		},
	}
}

func runCacheClearCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Clearing works whether or not caching is enabled for analysis runs.
	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache %s: %w", cfg.Cache.Dir, err)
	}

	messages(c).Success("Cleared cache %s", cfg.Cache.Dir)
	return nil
}
