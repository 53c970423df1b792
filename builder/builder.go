package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/davidvella/xsort/run"
)

var ErrInvalidFanIn = errors.New("builder: fan in must be at least 2")

// Creator opens new runs for writing.
type Creator interface {
	Create(ctx context.Context) (*run.Writer, error)
}

// Builder partitions a record stream into sorted runs.
type Builder interface {
	Build(ctx context.Context, src iter.Seq2[int64, error]) (Result, error)
}

// Result is the outcome of run formation. On failure it still lists the runs
// closed before the error so the caller can account for them.
type Result struct {
	Runs    run.Set
	Records int64
}

type options struct {
	logger *slog.Logger
}

// Option configures a builder.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func checkFanIn(fanIn int) error {
	if fanIn < 2 {
		return fmt.Errorf("%w: got %d", ErrInvalidFanIn, fanIn)
	}
	return nil
}

func defaultOptions() options {
	return options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// recordSource pulls records from a stream and counts them.
type recordSource struct {
	next  func() (int64, error, bool)
	stop  func()
	count int64
	done  bool
}

func newRecordSource(src iter.Seq2[int64, error]) *recordSource {
	next, stop := iter.Pull2(src)
	return &recordSource{next: next, stop: stop}
}

// read returns the next record, false at the end of the stream.
func (s *recordSource) read() (int64, bool, error) {
	if s.done {
		return 0, false, nil
	}
	v, err, ok := s.next()
	if !ok {
		s.done = true
		return 0, false, nil
	}
	if err != nil {
		s.done = true
		return 0, false, fmt.Errorf("builder: failed to read record %d: %w", s.count, err)
	}
	s.count++
	return v, true, nil
}
