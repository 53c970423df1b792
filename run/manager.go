package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/golang/snappy"
	"github.com/google/btree"
)

const defaultBufSize = 64 * 1024

// Manager creates, opens and reclaims runs on a Storage. Every run it creates
// stays registered until it is released or swept by Cleanup.
type Manager struct {
	storage  Storage
	compress bool
	bufSize  int
	logger   *slog.Logger

	mu   sync.Mutex
	live *btree.BTreeG[string]
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompression frames run contents with snappy.
func WithCompression(enabled bool) Option {
	return func(m *Manager) {
		m.compress = enabled
	}
}

// WithBufferSize sets the read and write buffer size for uncompressed runs.
func WithBufferSize(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.bufSize = size
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(storage Storage, opts ...Option) *Manager {
	m := &Manager{
		storage: storage,
		bufSize: defaultBufSize,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		live: btree.NewG[string](2, func(a, b string) bool {
			return a < b
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new run for writing.
func (m *Manager) Create(ctx context.Context) (*Writer, error) {
	name, wc, err := m.storage.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("run: failed to create: %w", err)
	}

	m.mu.Lock()
	m.live.ReplaceOrInsert(name)
	m.mu.Unlock()

	var buf flushWriter
	if m.compress {
		buf = snappy.NewBufferedWriter(wc)
	} else {
		buf = bufio.NewWriterSize(wc, m.bufSize)
	}

	w, err := newWriter(name, wc, buf)
	if err != nil {
		wc.Close()
		return nil, fmt.Errorf("run: failed to initialize %s: %w", name, err)
	}
	return w, nil
}

// Open opens a closed run for reading.
func (m *Manager) Open(ctx context.Context, r Run) (*Reader, error) {
	rc, err := m.storage.Open(ctx, r.Name)
	if err != nil {
		return nil, fmt.Errorf("run: failed to open %s: %w", r.Name, err)
	}

	var src io.Reader
	if m.compress {
		src = snappy.NewReader(rc)
	} else {
		src = bufio.NewReaderSize(rc, m.bufSize)
	}

	reader, err := newReader(r, rc, src)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("run: failed to initialize %s: %w", r.Name, err)
	}
	return reader, nil
}

// Release deletes a run that no later phase will read. A run whose deletion
// fails stays registered so Cleanup can retry it.
func (m *Manager) Release(ctx context.Context, r Run) error {
	if err := m.storage.Delete(ctx, r.Name); err != nil {
		return fmt.Errorf("run: failed to release %s: %w", r.Name, err)
	}

	m.mu.Lock()
	m.live.Delete(r.Name)
	m.mu.Unlock()
	return nil
}

// Live returns the names of all registered runs in name order.
func (m *Manager) Live() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, m.live.Len())
	m.live.Ascend(func(name string) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Cleanup deletes every registered run. Individual removal failures are
// logged and ignored. Cleanup is safe to call more than once; it only fails
// when ctx is done, leaving the remaining runs registered.
func (m *Manager) Cleanup(ctx context.Context) error {
	for _, name := range m.Live() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.storage.Delete(ctx, name); err != nil {
			m.logger.WarnContext(ctx, "ignoring run removal failure",
				slog.String("run", name), slog.Any("error", err))
		}

		m.mu.Lock()
		m.live.Delete(name)
		m.mu.Unlock()
	}
	return nil
}
