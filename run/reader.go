package run

import (
	"fmt"
	"io"

	"github.com/davidvella/xsort/recordio"
)

// Reader reads the records of a run in order.
type Reader struct {
	run    Run
	rc     io.ReadCloser
	rr     *recordio.Reader
	closed bool
}

func newReader(r Run, rc io.ReadCloser, src io.Reader) (*Reader, error) {
	rr, err := recordio.NewReader(src)
	if err != nil {
		return nil, err
	}
	return &Reader{run: r, rc: rc, rr: rr}, nil
}

// Next returns the next record, or false once the run is exhausted or a read
// fails.
func (r *Reader) Next() (int64, bool) {
	return r.rr.Next()
}

// Err returns the read error that ended iteration, if any.
func (r *Reader) Err() error {
	if err := r.rr.Err(); err != nil {
		return fmt.Errorf("run: failed to read %s: %w", r.run.Name, err)
	}
	return nil
}

func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rc.Close()
}
