// Command bsp2csv writes a CSV report of the collectible items in every
// Quake II map found in the maps directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/config"
	"github.com/JonMunkholm/bspitems/internal/core"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/logging"
	"github.com/JonMunkholm/bspitems/internal/report"
	"github.com/JonMunkholm/bspitems/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the command-line settings layered over the environment.
type options struct {
	fullNames  bool
	noComments bool
	mapsDir    string
	outputDir  string
	catalog    string
}

// parseFlags parses args over cfg. A help request or an unknown flag or
// argument prints usage and returns a non-nil error.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	opts := options{
		fullNames:  !cfg.Report.SimpleNames,
		noComments: !cfg.Report.IncludeMapName,
	}

	flags := flag.NewFlagSet("bsp2csv", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&opts.fullNames, "full-names", opts.fullNames, "use full descriptive names (q2dm1_the_edge.csv) instead of simple names (q2dm1.csv)")
	flags.BoolVar(&opts.noComments, "no-comments", opts.noComments, "don't include the map name as a comment in CSV files")
	flags.StringVar(&opts.mapsDir, "maps", cfg.Paths.MapsDir, "directory scanned for .bsp files")
	flags.StringVar(&opts.outputDir, "out", cfg.Paths.OutputDir, "directory CSV files are written to")
	flags.StringVar(&opts.catalog, "catalog", cfg.Paths.CatalogPath, "item catalog JSON file")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: bsp2csv [--full-names] [--no-comments] [-maps dir] [-out dir] [-catalog file]")
		flags.PrintDefaults()
		fmt.Fprintln(stderr, "  Default: simple names with map name comments")
		fmt.Fprintln(stderr, "  Note: only Quake II BSP files are processed")
	}

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if flags.NArg() > 0 {
		err := fmt.Errorf("unexpected argument %q", flags.Arg(0))
		fmt.Fprintln(stderr, err)
		flags.Usage()
		return opts, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Process environment wins over .env in the CLI.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	opts, err := parseFlags(args, cfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	version := cfg.GameVersion()
	cat, err := catalog.Load(opts.catalog)
	if err != nil {
		return fatal(stdout, err)
	}
	if !cat.HasVersion(string(version)) {
		fmt.Fprintf(stdout, "Error: item catalog %s has no %s section\n", opts.catalog, version)
		return 1
	}
	slog.Debug("catalog loaded", "path", opts.catalog, "version", version, "entries", cat.Len(string(version)))

	if err := report.EnsureDir(opts.outputDir); err != nil {
		return fatal(stdout, err)
	}

	paths, err := core.FindMaps(opts.mapsDir)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(stdout, "Error: maps folder not found!")
		return 1
	}
	if err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintf(stdout, "No BSP files found in %s\n", opts.mapsDir)
		return 0
	}

	var serviceOpts []core.Option
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return 1
		}
		defer pool.Close()

		items := store.New(pool, cfg.Database.Table)
		if err := items.EnsureTable(ctx); err != nil {
			slog.Error("failed to prepare item table", "table", cfg.Database.Table, "error", err)
			return 1
		}
		serviceOpts = append(serviceOpts, core.WithSink(items))
		slog.Info("item store enabled", "table", cfg.Database.Table)
	}

	reportOpts := report.Options{
		SimpleNames:    !opts.fullNames,
		IncludeMapName: !opts.noComments,
	}
	svc := core.NewService(extract.New(cat, version), opts.outputDir, reportOpts, serviceOpts...)

	svc.PrintSettings(stdout, string(version))
	summary := svc.RunBatch(ctx, paths, stdout)

	slog.Info("run complete",
		"run_id", summary.RunID,
		"processed", len(summary.Processed),
		"failed", len(summary.Failed),
	)
	if summary.Aborted != nil {
		return fatal(stdout, summary.Aborted)
	}
	return 0
}

// fatal prints err with its support hint and returns the failure exit code.
// Only errors for which core.Fatal holds end a run this way.
func fatal(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	if core.Fatal(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
	return 1
}
