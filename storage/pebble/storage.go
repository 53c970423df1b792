package pebble

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
)

const defaultBlockSize = 64 * 1024

var (
	ErrNotFound = errors.New("pebble: run not found")

	nextKey = []byte("m/next")
)

// Options configures the storage.
type Options struct {
	Path         string
	BlockSize    int
	CacheSize    int64
	MaxOpenFiles int
}

// Storage implements run storage on a Pebble database. Each run is a series
// of fixed-size blocks keyed by run name and block number, plus a commit
// marker written when the run is closed.
type Storage struct {
	db        *pebble.DB
	blockSize int

	mu   sync.Mutex
	next uint64
}

func NewStorage(opts Options) (*Storage, error) {
	pebbleOpts := &pebble.Options{
		MaxOpenFiles: opts.MaxOpenFiles,
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		pebbleOpts.Cache = cache
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, err
	}

	db, err := pebble.Open(opts.Path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to open %s: %w", opts.Path, err)
	}

	s := &Storage{
		db:        db,
		blockSize: opts.BlockSize,
	}
	if s.blockSize <= 0 {
		s.blockSize = defaultBlockSize
	}

	if s.next, err = s.loadNext(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) loadNext() (uint64, error) {
	value, closer, err := s.db.Get(nextKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pebble: failed to load run sequence: %w", err)
	}
	defer closer.Close()

	if len(value) != 8 {
		return 0, fmt.Errorf("pebble: corrupt run sequence of %d bytes", len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

// Create reserves a new run name and returns a writer for it.
func (s *Storage) Create(_ context.Context) (string, io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.next + 1
	if err := s.db.Set(nextKey, binary.BigEndian.AppendUint64(nil, seq), pebble.NoSync); err != nil {
		return "", nil, fmt.Errorf("pebble: failed to reserve run name: %w", err)
	}
	s.next = seq

	name := fmt.Sprintf("run-%016x", seq)
	return name, &blockWriter{
		db:   s.db,
		name: name,
		buf:  make([]byte, 0, s.blockSize),
	}, nil
}

// Open returns a reader over a closed run.
func (s *Storage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := s.checkCommitted(name); err != nil {
		return nil, err
	}

	lower, upper := blockRange(name)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to iterate over %s: %w", name, err)
	}
	it.First()

	return &blockReader{it: it}, nil
}

// Delete removes every block of a run and its commit marker. Blocks flushed
// by a writer that was never closed are removed too.
func (s *Storage) Delete(_ context.Context, name string) error {
	switch err := s.checkCommitted(name); {
	case errors.Is(err, ErrNotFound):
		found, err := s.hasBlocks(name)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	case err != nil:
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	lower, upper := blockRange(name)
	if err := batch.DeleteRange(lower, upper, nil); err != nil {
		return err
	}
	if err := batch.Delete(markerKey(name), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("pebble: failed to delete %s: %w", name, err)
	}
	return nil
}

func (s *Storage) checkCommitted(name string) error {
	_, closer, err := s.db.Get(markerKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("pebble: failed to look up %s: %w", name, err)
	}
	return closer.Close()
}

func (s *Storage) hasBlocks(name string) (_ bool, err error) {
	lower, upper := blockRange(name)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return false, fmt.Errorf("pebble: failed to iterate over %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, it.Close())
	}()
	return it.First(), nil
}

func markerKey(name string) []byte {
	return append([]byte("c/"), name...)
}

func blockKey(name string, block uint64) []byte {
	key := append([]byte("r/"), name...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint64(key, block)
}

// blockRange returns the key bounds covering every block of name.
func blockRange(name string) (lower, upper []byte) {
	lower = append(append([]byte("r/"), name...), '/')
	upper = append(append([]byte("r/"), name...), '/'+1)
	return lower, upper
}

type blockWriter struct {
	db     *pebble.DB
	name   string
	buf    []byte
	block  uint64
	closed bool
}

func (w *blockWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("pebble: write to closed run %s", w.name)
	}

	written := 0
	for len(p) > 0 {
		n := min(cap(w.buf)-len(w.buf), len(p))
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		written += n

		if len(w.buf) == cap(w.buf) {
			if err := w.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *blockWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.db.Set(blockKey(w.name, w.block), w.buf, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble: failed to write block %d of %s: %w", w.block, w.name, err)
	}
	w.block++
	w.buf = w.buf[:0]
	return nil
}

// Close writes the final partial block and the commit marker.
func (w *blockWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flush(); err != nil {
		return err
	}
	if err := w.db.Set(markerKey(w.name), nil, pebble.NoSync); err != nil {
		return fmt.Errorf("pebble: failed to commit %s: %w", w.name, err)
	}
	return nil
}

type blockReader struct {
	it      *pebble.Iterator
	pending []byte
}

func (r *blockReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if !r.it.Valid() {
			if err := r.it.Error(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		// The iterator owns Value's memory only until the next positioning call.
		r.pending = append(r.pending[:0], r.it.Value()...)
		r.it.Next()
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *blockReader) Close() error {
	return r.it.Close()
}
