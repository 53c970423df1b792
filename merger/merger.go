package merger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/davidvella/xsort/run"
)

var (
	ErrInvalidFanIn    = errors.New("merger: fan in must be at least 2")
	ErrUnknownStrategy = errors.New("merger: unknown strategy")
	ErrRecordCount     = errors.New("merger: record count mismatch")
)

// Runs is the run lifecycle the engine needs. *run.Manager implements it.
type Runs interface {
	Create(ctx context.Context) (*run.Writer, error)
	Open(ctx context.Context, r run.Run) (*run.Reader, error)
	Release(ctx context.Context, r run.Run) error
}

// Strategy selects how the smallest head among a group's runs is found.
type Strategy int

const (
	// Heap keeps the run heads in a min-heap.
	Heap Strategy = iota
	// Tournament keeps the run heads in a loser tree.
	Tournament
)

func (s Strategy) String() string {
	switch s {
	case Heap:
		return "heap"
	case Tournament:
		return "tournament"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "heap":
		return Heap, nil
	case "tournament":
		return Tournament, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

type options struct {
	strategy Strategy
	logger   *slog.Logger
}

type Option func(*options)

func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Engine merges sets of sorted runs, fanIn runs at a time.
type Engine struct {
	fanIn    int
	runs     Runs
	strategy Strategy
	logger   *slog.Logger
}

// New returns an Engine merging fanIn runs at a time. fanIn must be at least 2.
func New(fanIn int, runs Runs, opts ...Option) (*Engine, error) {
	if fanIn < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFanIn, fanIn)
	}

	o := options{
		strategy: Heap,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		fanIn:    fanIn,
		runs:     runs,
		strategy: o.strategy,
		logger:   o.logger,
	}, nil
}

// Merge runs passes until at most one run is left and returns it together
// with the number of passes made.
func (e *Engine) Merge(ctx context.Context, set run.Set) (run.Set, int, error) {
	passes := 0
	for len(set) > 1 {
		next, err := e.Pass(ctx, set)
		if err != nil {
			return next, passes, fmt.Errorf("merger: pass %d failed: %w", passes+1, err)
		}
		passes++
		e.logger.DebugContext(ctx, "merge pass complete",
			slog.Int("pass", passes),
			slog.Int("runs_in", len(set)),
			slog.Int("runs_out", len(next)))
		set = next
	}
	return set, passes, nil
}

// Pass merges consecutive groups of fanIn runs into one run each. A set of
// zero or one run is returned unchanged. Input runs are released as soon as
// their group is merged.
func (e *Engine) Pass(ctx context.Context, set run.Set) (run.Set, error) {
	if len(set) <= 1 {
		return set, nil
	}

	out := make(run.Set, 0, (len(set)+e.fanIn-1)/e.fanIn)
	for start := 0; start < len(set); start += e.fanIn {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		group := set[start:min(start+e.fanIn, len(set))]
		merged, err := e.Group(ctx, group)
		if err != nil {
			return out, err
		}
		out = append(out, merged)
		e.logger.DebugContext(ctx, "group merged",
			slog.Int("group", start/e.fanIn),
			slog.Int("runs", len(group)),
			slog.String("run", merged.Name),
			slog.Int64("records", merged.Len))
		e.release(ctx, group)
	}
	return out, nil
}

// Group merges up to fanIn runs into a single new run. The inputs are left
// in place.
func (e *Engine) Group(ctx context.Context, group run.Set) (_ run.Run, err error) {
	readers := make([]*run.Reader, 0, len(group))
	defer func() {
		for _, r := range readers {
			if closeErr := r.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
		}
	}()

	for _, r := range group {
		reader, err := e.runs.Open(ctx, r)
		if err != nil {
			return run.Run{}, err
		}
		readers = append(readers, reader)
	}

	w, err := e.runs.Create(ctx)
	if err != nil {
		return run.Run{}, err
	}

	switch e.strategy {
	case Tournament:
		err = mergeTournament(readers, w)
	default:
		err = mergeHeap(readers, w)
	}
	for _, r := range readers {
		err = errors.Join(err, r.Err())
	}
	if err != nil {
		w.Close()
		return run.Run{}, err
	}

	if err := w.Close(); err != nil {
		return run.Run{}, err
	}

	if got, want := w.Len(), group.Records(); got != want {
		return run.Run{}, fmt.Errorf("%w: wrote %d records from runs holding %d", ErrRecordCount, got, want)
	}
	return w.Run(), nil
}

func (e *Engine) release(ctx context.Context, group run.Set) {
	for _, r := range group {
		if err := e.runs.Release(ctx, r); err != nil {
			e.logger.WarnContext(ctx, "failed to release merged run",
				slog.String("run", r.Name), slog.Any("error", err))
		}
	}
}
