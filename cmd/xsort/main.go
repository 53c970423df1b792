// Sort a file of integers that may not fit in memory.
// Usage: go run ./cmd/xsort [flags] <p> <input> <output>
// Example: go run ./cmd/xsort -store pebble -compress 64 numbers.txt sorted.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/davidvella/xsort"
	"github.com/davidvella/xsort/merger"
	"github.com/davidvella/xsort/run"
	"github.com/davidvella/xsort/storage/local"
	"github.com/davidvella/xsort/storage/memory"
	pebblestore "github.com/davidvella/xsort/storage/pebble"
)

type config struct {
	store    string
	dir      string
	compress bool
	merge    string
	runs     string
	verbose  bool
	fanIn    int
	input    string
	output   string
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := execute(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(stats)
}

func parseFlags(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("xsort", flag.ContinueOnError)
	fs.StringVar(&cfg.store, "store", "local", "run storage: local, pebble or memory")
	fs.StringVar(&cfg.dir, "dir", "", "directory for run storage (default: a temporary directory)")
	fs.BoolVar(&cfg.compress, "compress", false, "compress runs with snappy")
	fs.StringVar(&cfg.merge, "merge", merger.Heap.String(), "merge strategy: heap or tournament")
	fs.StringVar(&cfg.runs, "runs", xsort.ReplacementSelection.String(), "run formation: replacement or chunked")
	fs.BoolVar(&cfg.verbose, "v", false, "log progress to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <p> <input> <output>\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return cfg, fmt.Errorf("expected 3 arguments, got %d", fs.NArg())
	}

	fanIn, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return cfg, fmt.Errorf("invalid p %q: %w", fs.Arg(0), err)
	}
	if fanIn < 2 {
		return cfg, fmt.Errorf("%w: got %d", xsort.ErrInvalidFanIn, fanIn)
	}
	cfg.fanIn = fanIn
	cfg.input = fs.Arg(1)
	cfg.output = fs.Arg(2)
	return cfg, nil
}

func execute(ctx context.Context, cfg config) (xsort.Stats, error) {
	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	strategy, err := merger.ParseStrategy(cfg.merge)
	if err != nil {
		return xsort.Stats{}, err
	}
	formation, err := xsort.ParseRunFormation(cfg.runs)
	if err != nil {
		return xsort.Stats{}, err
	}

	storage, release, err := openStorage(cfg)
	if err != nil {
		return xsort.Stats{}, err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("failed to release run storage", slog.Any("error", err))
		}
	}()

	s, err := xsort.New(cfg.fanIn,
		xsort.WithStorage(storage),
		xsort.WithCompression(cfg.compress),
		xsort.WithMergeStrategy(strategy),
		xsort.WithRunFormation(formation),
		xsort.WithLogger(logger))
	if err != nil {
		return xsort.Stats{}, err
	}
	defer func() {
		// Runs must go even when ctx was cancelled mid-sort.
		if err := s.Cleanup(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("cleanup interrupted", slog.Any("error", err))
		}
		if err := s.Close(); err != nil {
			logger.Warn("failed to close run storage", slog.Any("error", err))
		}
	}()

	return s.SortFile(ctx, cfg.input, cfg.output)
}

// openStorage returns the configured run storage and a func that removes
// whatever the command created for it.
func openStorage(cfg config) (run.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.store {
	case "memory":
		return memory.NewStorage(), noop, nil
	case "local":
		dir := cfg.dir
		if dir == "" {
			dir = os.TempDir()
		}
		return local.NewLocalStorage(dir), noop, nil
	case "pebble":
		dir, cleanup := cfg.dir, noop
		if dir == "" {
			tmp, err := os.MkdirTemp("", "xsort-*")
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create run directory: %w", err)
			}
			dir, cleanup = tmp, func() error { return os.RemoveAll(tmp) }
		}
		s, err := pebblestore.NewStorage(pebblestore.Options{Path: filepath.Join(dir, "runs")})
		if err != nil {
			return nil, nil, errors.Join(err, cleanup())
		}
		return s, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.store)
	}
}
