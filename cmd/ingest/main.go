// Command ingest runs the configured web sources through their ingestion
// workflows, keeping dedup keys and cursors between runs.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/dedup"
	"github.com/kbukum/ingestkit/logger"
	"github.com/kbukum/ingestkit/version"
	"github.com/kbukum/ingestkit/web"
	"github.com/kbukum/ingestkit/workflow"
)

func main() {
	if err := newCLI(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCLI(out io.Writer) *cli.App {
	sourceFlag := &cli.StringSliceFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Restrict to the named sources (repeatable)",
	}
	return &cli.App{
		Name:    serviceName,
		Usage:   "Incremental web ingestion with persistent dedup and cursors",
		Version: version.Get().String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				EnvVars: []string{"INGEST_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run every source once, resuming from its cursor",
				Action: runCommand,
				Flags: []cli.Flag{
					sourceFlag,
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Only seeds containing this substring",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum seeds per source (0 means all)",
					},
				},
			},
			{
				Name:   "cursor",
				Usage:  "Print the last successful run time of each source",
				Action: cursorCommand,
				Flags:  []cli.Flag{sourceFlag},
			},
			{
				Name:   "reset",
				Usage:  "Forget dedup keys and cursors so the next run starts over",
				Action: resetCommand,
				Flags:  []cli.Flag{sourceFlag},
			},
		},
	}
}

// setup loads the config named by the global flags and opens the stores.
func setup(c *cli.Context) (*app, error) {
	cfg, err := loadConfig(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Logging.Validate(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if names := c.StringSlice("source"); len(names) > 0 {
		cfg.Sources = slices.DeleteFunc(cfg.Sources, func(src web.Config) bool {
			return !slices.Contains(names, src.Source)
		})
		if len(cfg.Sources) == 0 {
			return nil, fmt.Errorf("no configured source matches %v", names)
		}
	}
	return newApp(c.Context, cfg, c.App.Writer)
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.startObservability(ctx); err != nil {
		return err
	}
	if err := a.connectMongo(ctx); err != nil {
		return err
	}
	jobs, err := a.jobs(c.String("filter"), c.Int("limit"))
	if err != nil {
		return err
	}

	group, err := workflow.NewGroup(a.cfg.Workflow)
	if err != nil {
		return err
	}
	defer group.Release()

	start := time.Now()
	failed := 0
	for _, r := range group.Run(ctx, jobs...) {
		fields := logger.Fields(
			logger.FieldWorkflow, r.Workflow,
			"produced", r.Stats.Produced,
			"consumed", r.Stats.Consumed,
			"errored", r.Stats.Errored,
			logger.FieldDuration, r.Stats.Duration().Milliseconds(),
		)
		if r.Err != nil {
			failed++
			a.log.WithError(r.Err).Error("workflow failed", fields)
			continue
		}
		a.log.Info("workflow completed", fields)
	}

	st := a.client.Stats()
	a.log.Info("ingest finished", logger.Fields(
		"sources", len(jobs),
		"failed", failed,
		"requests", st.Requests,
		"cache_hits", a.fetcher.Hits(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(jobs))
	}
	return nil
}

func cursorCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	for _, src := range a.cfg.Sources {
		last, ok, err := a.cursorStore(src).GetLastExecutionTime(c.Context)
		if err != nil {
			return err
		}
		value := "never"
		if ok {
			value = last.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", src.Source, value)
	}
	return nil
}

func resetCommand(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := c.Context
	for _, src := range a.cfg.Sources {
		for _, store := range []dedup.Store{a.linkStore(src), a.articleStore(src)} {
			if r, ok := store.(dedup.Resettable); ok {
				if err := r.Reset(ctx); err != nil {
					return err
				}
			}
		}
		if cl, ok := a.cursorStore(src).(cursor.Clearer); ok {
			if err := cl.Clear(ctx); err != nil {
				return err
			}
		}
		fmt.Fprintf(c.App.Writer, "%s\treset\n", src.Source)
	}
	return nil
}
