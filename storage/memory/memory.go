package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var ErrNotFound = errors.New("memory: object not found")

// Storage provides in-memory run storage. Objects become readable once their
// writer is closed.
type Storage struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int
}

func NewStorage() *Storage {
	return &Storage{
		objects: make(map[string][]byte),
	}
}

func (s *Storage) Create(_ context.Context) (string, io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	name := fmt.Sprintf("run-%06d", s.next)
	return name, &object{storage: s, name: name}, nil
}

func (s *Storage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Storage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.objects, name)
	return nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type object struct {
	storage *Storage
	name    string
	buf     bytes.Buffer
	closed  bool
}

func (o *object) Write(p []byte) (int, error) {
	if o.closed {
		return 0, fmt.Errorf("memory: write to closed object %s", o.name)
	}
	return o.buf.Write(p)
}

func (o *object) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true

	o.storage.mu.Lock()
	o.storage.objects[o.name] = o.buf.Bytes()
	o.storage.mu.Unlock()
	return nil
}
