// Package run manages the sorted runs a sort keeps on external storage.
package run

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUnsorted = errors.New("run: records must be written in sorted order")
	ErrClosed   = errors.New("run: already closed")
)

// Run is a handle to a sorted, immutable sequence of records held in a
// Storage.
type Run struct {
	Name string
	Len  int64
}

// Set is the ordered frontier of runs between two phases of a sort.
type Set []Run

// Records returns the total number of records across the set.
func (s Set) Records() int64 {
	var n int64
	for _, r := range s {
		n += r.Len
	}
	return n
}

// Storage defines the interface for the underlying run storage. Names handed
// out by Create are never reused.
type Storage interface {
	// Create a new, uniquely named object for writing.
	Create(ctx context.Context) (string, io.WriteCloser, error)
	// Open a previously created object for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete an object.
	Delete(ctx context.Context, name string) error
}
