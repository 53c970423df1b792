package builder

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/btree"
)

// Chunked forms runs by buffering fanIn records in an ordered segment and
// flushing it whenever it fills. Every run except the last holds exactly
// fanIn records.
type Chunked struct {
	fanIn  int
	runs   Creator
	logger *slog.Logger
}

func NewChunked(fanIn int, runs Creator, opts ...Option) (*Chunked, error) {
	if err := checkFanIn(fanIn); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Chunked{
		fanIn:  fanIn,
		runs:   runs,
		logger: o.logger,
	}, nil
}

// item carries the arrival sequence so equal records stay distinct in the tree.
type item struct {
	value int64
	seq   int64
}

func lessItem(a, b item) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.seq < b.seq
}

func (b *Chunked) Build(ctx context.Context, src iter.Seq2[int64, error]) (Result, error) {
	var res Result

	source := newRecordSource(src)
	defer source.stop()

	segment := btree.NewG[item](2, lessItem)
	for {
		v, ok, err := source.read()
		res.Records = source.count
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}

		segment.ReplaceOrInsert(item{value: v, seq: source.count})
		if segment.Len() < b.fanIn {
			continue
		}
		if err := b.flush(ctx, segment, &res); err != nil {
			return res, err
		}
	}

	if segment.Len() > 0 {
		if err := b.flush(ctx, segment, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (b *Chunked) flush(ctx context.Context, segment *btree.BTreeG[item], res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := b.runs.Create(ctx)
	if err != nil {
		return fmt.Errorf("builder: failed to open run: %w", err)
	}

	var writeErr error
	segment.Ascend(func(it item) bool {
		if err := w.Append(it.value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		w.Close()
		return writeErr
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("builder: failed to close run: %w", err)
	}
	segment.Clear(true)

	r := w.Run()
	res.Runs = append(res.Runs, r)
	b.logger.DebugContext(ctx, "run closed",
		slog.String("run", r.Name),
		slog.Int64("records", r.Len),
		slog.Int("index", len(res.Runs)-1))
	return nil
}
