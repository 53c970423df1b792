package xsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davidvella/xsort/builder"
	"github.com/davidvella/xsort/merger"
	"github.com/davidvella/xsort/recordio"
	"github.com/davidvella/xsort/run"
	"github.com/davidvella/xsort/storage/local"
)

var ErrInvalidFanIn = errors.New("xsort: fan in must be at least 2")

// Sorter sorts streams of integers that need not fit in memory. It holds at
// most fanIn records in memory and keeps everything else in runs on its
// storage.
type Sorter struct {
	fanIn   int
	storage run.Storage
	runs    *run.Manager
	builder builder.Builder
	merger  *merger.Engine
	logger  *slog.Logger
}

// New creates a Sorter with a working set and merge order of fanIn.
func New(fanIn int, opts ...Option) (*Sorter, error) {
	if fanIn < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFanIn, fanIn)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.storage == nil {
		o.storage = local.NewLocalStorage(os.TempDir())
	}

	runs := run.NewManager(o.storage,
		run.WithCompression(o.compress),
		run.WithLogger(o.logger))

	var (
		b   builder.Builder
		err error
	)
	switch o.formation {
	case ReplacementSelection:
		b, err = builder.New(fanIn, runs, builder.WithLogger(o.logger))
	case Chunked:
		b, err = builder.NewChunked(fanIn, runs, builder.WithLogger(o.logger))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRunFormation, o.formation)
	}
	if err != nil {
		return nil, err
	}

	switch o.strategy {
	case merger.Heap, merger.Tournament:
	default:
		return nil, fmt.Errorf("%w: %s", merger.ErrUnknownStrategy, o.strategy)
	}

	m, err := merger.New(fanIn, runs,
		merger.WithStrategy(o.strategy),
		merger.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	return &Sorter{
		fanIn:   fanIn,
		storage: o.storage,
		runs:    runs,
		builder: b,
		merger:  m,
		logger:  o.logger,
	}, nil
}

// Sort reads whitespace separated integers from r and writes them to w in
// ascending order, one per line. Runs created along the way are released on
// success. On failure they stay behind until Cleanup.
func (s *Sorter) Sort(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	stats := Stats{FanIn: s.fanIn}

	built, err := s.builder.Build(ctx, recordio.Tokens(r))
	stats.Records = built.Records
	stats.Runs = len(built.Runs)
	if err != nil {
		return stats, fmt.Errorf("xsort: run formation failed: %w", err)
	}
	s.logger.InfoContext(ctx, "runs formed",
		slog.Int64("records", stats.Records),
		slog.Int("runs", stats.Runs))

	final, passes, err := s.merger.Merge(ctx, built.Runs)
	stats.Passes = passes
	if err != nil {
		return stats, fmt.Errorf("xsort: merge failed: %w", err)
	}

	tw := recordio.NewTextWriter(w)
	if len(final) == 1 {
		if err := s.copyRun(ctx, final[0], tw); err != nil {
			return stats, err
		}
	}
	if err := tw.Flush(); err != nil {
		return stats, fmt.Errorf("xsort: failed to write output: %w", err)
	}

	if len(final) == 1 {
		if err := s.runs.Release(ctx, final[0]); err != nil {
			s.logger.WarnContext(ctx, "failed to release final run",
				slog.String("run", final[0].Name), slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "sort complete",
		slog.Int64("records", stats.Records),
		slog.Int("runs", stats.Runs),
		slog.Int("passes", stats.Passes))
	return stats, nil
}

func (s *Sorter) copyRun(ctx context.Context, r run.Run, tw *recordio.TextWriter) (err error) {
	reader, err := s.runs.Open(ctx, r)
	if err != nil {
		return fmt.Errorf("xsort: failed to open final run: %w", err)
	}
	defer func() {
		err = errors.Join(err, reader.Close())
	}()

	for v, ok := reader.Next(); ok; v, ok = reader.Next() {
		if err := tw.Write(v); err != nil {
			return fmt.Errorf("xsort: failed to write output: %w", err)
		}
	}
	return reader.Err()
}

// SortFile sorts the records in the file named in into the file named out,
// creating or truncating it.
func (s *Sorter) SortFile(ctx context.Context, in, out string) (_ Stats, err error) {
	src, err := os.Open(in)
	if err != nil {
		return Stats{FanIn: s.fanIn}, fmt.Errorf("xsort: failed to open input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return Stats{FanIn: s.fanIn}, fmt.Errorf("xsort: failed to create output: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("xsort: failed to close output: %w", closeErr))
		}
	}()

	return s.Sort(ctx, src, dst)
}

// Cleanup removes every run the sorter still holds. It is safe to call after
// a failed Sort and more than once.
func (s *Sorter) Cleanup(ctx context.Context) error {
	return s.runs.Cleanup(ctx)
}

// Close releases the storage if it holds resources of its own.
func (s *Sorter) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
