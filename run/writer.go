package run

import (
	"errors"
	"fmt"
	"io"

	"github.com/davidvella/xsort/recordio"
)

type flushWriter interface {
	io.Writer
	Flush() error
}

// Writer appends records to a new run.
type Writer struct {
	name   string
	wc     io.WriteCloser
	buf    flushWriter
	rw     *recordio.Writer
	n      int64
	last   int64
	closed bool
}

func newWriter(name string, wc io.WriteCloser, buf flushWriter) (*Writer, error) {
	rw, err := recordio.NewWriter(buf)
	if err != nil {
		return nil, err
	}
	return &Writer{
		name: name,
		wc:   wc,
		buf:  buf,
		rw:   rw,
	}, nil
}

// Append writes v to the end of the run. v must not be smaller than the
// previously appended record.
func (w *Writer) Append(v int64) error {
	if w.closed {
		return ErrClosed
	}
	if w.n > 0 && v < w.last {
		return fmt.Errorf("%w: %d after %d", ErrUnsorted, v, w.last)
	}
	if err := w.rw.Write(v); err != nil {
		return fmt.Errorf("run: failed to append to %s: %w", w.name, err)
	}
	w.n++
	w.last = v
	return nil
}

// Last returns the most recently appended record.
func (w *Writer) Last() (int64, bool) {
	return w.last, w.n > 0
}

func (w *Writer) Len() int64 {
	return w.n
}

// Run returns the handle of the run being written.
func (w *Writer) Run() Run {
	return Run{Name: w.name, Len: w.n}
}

// Close flushes buffered records and closes the underlying object. Closing
// twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.wc.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("run: failed to close %s: %w", w.name, err)
	}
	return nil
}
