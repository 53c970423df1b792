package xsort

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/davidvella/xsort/merger"
	"github.com/davidvella/xsort/run"
)

var ErrUnknownRunFormation = errors.New("xsort: unknown run formation")

// RunFormation selects how input is split into initial runs.
type RunFormation int

const (
	// ReplacementSelection builds runs averaging twice the fan in on random
	// input.
	ReplacementSelection RunFormation = iota
	// Chunked sorts fixed blocks of fan in records.
	Chunked
)

func (f RunFormation) String() string {
	switch f {
	case ReplacementSelection:
		return "replacement"
	case Chunked:
		return "chunked"
	default:
		return fmt.Sprintf("RunFormation(%d)", int(f))
	}
}

func ParseRunFormation(s string) (RunFormation, error) {
	switch s {
	case "replacement":
		return ReplacementSelection, nil
	case "chunked":
		return Chunked, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRunFormation, s)
	}
}

// options defines all configuration options for the sorter.
type options struct {
	// Run options
	storage  run.Storage // Where runs are kept, temp files when nil
	compress bool        // Frame runs with snappy

	// Algorithm options
	formation RunFormation
	strategy  merger.Strategy

	logger *slog.Logger
}

// Option is a function that configures the sorter options.
type Option func(*options)

// WithStorage sets the storage runs are written to.
func WithStorage(s run.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithCompression enables snappy compression of runs.
func WithCompression(enabled bool) Option {
	return func(o *options) {
		o.compress = enabled
	}
}

// WithRunFormation sets the run formation strategy.
func WithRunFormation(f RunFormation) Option {
	return func(o *options) {
		o.formation = f
	}
}

// WithMergeStrategy sets how the merge phase selects the next record.
func WithMergeStrategy(s merger.Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithLogger sets the logger shared by every phase.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		formation: ReplacementSelection,
		strategy:  merger.Heap,
	}
}
