package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadroute/internal/output"
	"github.com/panbanda/deadroute/pkg/analyzer/templates"
	"github.com/panbanda/deadroute/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-analyze templates as they change and reprint unused route names",
		ArgsUsage: "[path]",
		Flags: append(routeFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long a template must stay unchanged before it is re-analyzed",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	root := getPaths(c)[0]

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defined, err := definedRoutes(c, cfg)
	if err != nil {
		return err
	}

	msg := messages(c)
	msg.SetStatus(c.App.ErrWriter)

	a, err := analyzeRoots(c.Context, cfg, []string{root}, msg)
	if err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(root, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	printStatus(msg, a, defined)

	msg.SetStatus(msg.Writer())
	watcher.SetOutput(msg.Writer())
	watcher.SetCallback(func(ev watch.Event) {
		if rec := watch.Apply(a, ev); rec != nil && rec.Failed() {
			msg.Error("%s", rec.Error)
		}
		printStatus(msg, a, defined)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Fprintln(msg.Writer(), "\nStopping watch...")
	return nil
}

// printStatus prints the unused route names, or the referenced count when
// no routes are defined.
func printStatus(f *output.Formatter, a *templates.Analyzer, defined templates.Set) {
	w := f.Writer()
	if defined.Len() == 0 {
		fmt.Fprintf(w, "%d templates, %d route names referenced\n", a.Len(), a.AllReferencedURLNames().Len())
		return
	}

	unused := a.UnusedURLNames(defined).Sorted()
	count := fmt.Sprintf("%d", len(unused))
	if f.Colored() {
		count = output.CountColor(len(unused))
	}
	fmt.Fprintf(w, "%d templates, %s of %d defined routes unused\n", a.Len(), count, defined.Len())
	for _, name := range unused {
		fmt.Fprintf(w, "  - %s\n", name)
	}
}
