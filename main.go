// gerrit-view is a terminal dashboard for a Zuul status endpoint: it polls
// the scheduler's JSON status, reconciles it into a stable tree of
// pipelines, reviews and jobs, and renders it live with tview.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/larsks/gerrit-view/board"
	"github.com/larsks/gerrit-view/config"
	"github.com/larsks/gerrit-view/status"
	"github.com/larsks/gerrit-view/ui"
)

const Version = "1.0.0"

type cliOptions struct {
	configFile      string
	url             string
	pipelines       []string
	refreshInterval int
	tickInterval    int
	logFile         string
	headless        bool
}

func main() {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:     "gerrit-view",
		Short:   "Live terminal dashboard for a Zuul status endpoint",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (YAML)")
	flags.StringVarP(&opts.url, "url", "u", "", "status endpoint URL")
	flags.StringArrayVarP(&opts.pipelines, "pipeline", "p", nil, "pipeline to watch (repeatable; default all)")
	flags.IntVar(&opts.refreshInterval, "refresh-interval", 0, "seconds between fetches")
	flags.IntVar(&opts.tickInterval, "tick-interval", 0, "seconds between scheduler ticks")
	flags.StringVar(&opts.logFile, "log-file", "", "append log output to this file")
	flags.BoolVar(&opts.headless, "headless", false, "run without the terminal UI")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: file (or defaults), then
// explicit flag overrides, then validation of the merged result.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	var cfg *config.Config
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Server.URL = opts.url
	}
	if flags.Changed("pipeline") {
		cfg.Watch.Pipelines = opts.pipelines
	}
	if flags.Changed("refresh-interval") {
		cfg.Refresh.IntervalSeconds = opts.refreshInterval
	}
	if flags.Changed("tick-interval") {
		cfg.Refresh.TickSeconds = opts.tickInterval
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = opts.logFile
	}
	if opts.headless {
		cfg.UI.Mode = "headless"
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	fanout, err := setupLogging(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer fanout.Close()
	log.SetFlags(0)
	log.SetOutput(fanout)

	enableUI := cfg.UI.Mode == "tview" && isStdoutTTY()
	if cfg.UI.Mode == "tview" && !enableUI {
		log.Printf("main: stdout is not a terminal, running headless")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := status.NewStore()
	gate := status.NewGate()
	fetcher := status.NewFetcher(cfg.Server.URL, store)
	tree := board.NewTree()

	interval := time.Duration(cfg.Refresh.IntervalSeconds) * time.Second
	tick := time.Duration(cfg.Refresh.TickSeconds) * time.Second
	refr := newRefresher(store, gate, interval)

	dash := ui.New(ui.Config{
		Title: "gerrit-view " + Version,
		URL:   cfg.Server.URL,
	}, enableUI)
	if dash != nil {
		dash.WaitReady()
		// The UI owns the terminal now; stderr output would corrupt it.
		fanout.SetConsoleSink(dash.SystemWriter(), true)
		defer fanout.SetConsoleSink(os.Stderr, true)
	} else {
		cfg.Print()
	}

	log.Printf("main: watching %s (refresh %ds, tick %ds)",
		cfg.Server.URL, cfg.Refresh.IntervalSeconds, cfg.Refresh.TickSeconds)

	// Fetch worker: one goroutine, one fetch at a time. The gate stays armed
	// for the whole attempt so ticks that fire mid-fetch are absorbed.
	go func() {
		for gate.Wait(ctx) {
			fetcher.FetchOnce(ctx, refr.fetchTimeout())
			gate.Done()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var lastApplied time.Time
	var totalAdded, totalRemoved, totalRefreshed int
	var rightText, lastLine string

	for {
		now := time.Now()
		left := refr.Tick(now)

		snap, fetchedAt, ok := store.Get()
		if ok && fetchedAt.After(lastApplied) {
			stats := tree.Reconcile(snap, cfg.Watch.Pipelines)
			lastApplied = fetchedAt
			totalAdded += stats.Added
			totalRemoved += stats.Removed
			totalRefreshed += stats.Refreshed
			rightText = fmt.Sprintf("%d pipelines (%da, %dd, %dr)",
				stats.Pipelines, totalAdded, totalRemoved, totalRefreshed)

			if dash != nil {
				dash.Apply(tree.Snapshot())
			} else {
				log.Printf("main: %d pipelines, +%d -%d ~%d (%d ops)",
					stats.Pipelines, stats.Added, stats.Removed, stats.Refreshed, stats.Ops)
			}
		}
		if dash != nil {
			// Header age and status bar re-render every tick so the "updated
			// N ago" text and the countdown stay current between fetches.
			dash.SetUpdated(fetchedAt)
			dash.SetStatus(left, rightText)
		} else if left != lastLine {
			log.Printf("main: %s", left)
		}
		lastLine = left

		select {
		case <-sigCh:
			log.Printf("main: interrupted, shutting down")
			dash.Stop()
			return nil
		case <-dash.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
