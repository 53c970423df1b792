package builder

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/davidvella/xsort/priority"
	"github.com/davidvella/xsort/run"
)

// Replacement forms runs by replacement selection over a working set of
// fanIn records. On random input its runs average twice the working set.
type Replacement struct {
	fanIn  int
	runs   Creator
	logger *slog.Logger
}

// New returns a Replacement builder. fanIn must be at least 2.
func New(fanIn int, runs Creator, opts ...Option) (*Replacement, error) {
	if err := checkFanIn(fanIn); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Replacement{
		fanIn:  fanIn,
		runs:   runs,
		logger: o.logger,
	}, nil
}

func lessRecord(a, b int64) bool { return a < b }

// admits reports whether v may still be written to the run being built by w.
func admits(w *run.Writer, v int64) bool {
	last, ok := w.Last()
	return !ok || v >= last
}

// Build consumes src and returns the runs it was partitioned into.
func (b *Replacement) Build(ctx context.Context, src iter.Seq2[int64, error]) (Result, error) {
	var res Result

	source := newRecordSource(src)
	defer source.stop()

	heap := priority.NewQueue(lessRecord, b.fanIn)
	for heap.Len() < b.fanIn {
		v, ok, err := source.read()
		if err != nil {
			res.Records = source.count
			return res, err
		}
		if !ok {
			break
		}
		heap.Push(v)
	}
	res.Records = source.count

	if heap.Len() == 0 {
		return res, nil
	}

	w, err := b.runs.Create(ctx)
	if err != nil {
		return res, fmt.Errorf("builder: failed to open run: %w", err)
	}
	defer func() {
		// Only reached with an open writer on the error paths.
		if w != nil {
			w.Close()
		}
	}()

	// Records smaller than the current run's tail wait here for the next run.
	deferred := make([]int64, 0, b.fanIn)

	for heap.Len() > 0 || len(deferred) > 0 {
		if heap.Len() == 0 {
			if err := b.seal(ctx, w, &res); err != nil {
				w = nil
				return res, err
			}
			w = nil

			for _, v := range deferred {
				heap.Push(v)
			}
			deferred = deferred[:0]

			if err := ctx.Err(); err != nil {
				return res, err
			}
			if w, err = b.runs.Create(ctx); err != nil {
				return res, fmt.Errorf("builder: failed to open run: %w", err)
			}
			continue
		}

		v, _ := heap.Pop()
		if admits(w, v) {
			if err := w.Append(v); err != nil {
				return res, err
			}
		} else {
			deferred = append(deferred, v)
		}

		v, ok, err := source.read()
		res.Records = source.count
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}
		if admits(w, v) {
			heap.Push(v)
		} else {
			deferred = append(deferred, v)
		}
	}

	err = b.seal(ctx, w, &res)
	w = nil
	return res, err
}

func (b *Replacement) seal(ctx context.Context, w *run.Writer, res *Result) error {
	if err := w.Close(); err != nil {
		return fmt.Errorf("builder: failed to close run: %w", err)
	}
	r := w.Run()
	res.Runs = append(res.Runs, r)
	b.logger.DebugContext(ctx, "run closed",
		slog.String("run", r.Name),
		slog.Int64("records", r.Len),
		slog.Int("index", len(res.Runs)-1))
	return nil
}
