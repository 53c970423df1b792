package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const filePrefix = "xsort-run-"

// Storage implements run storage as temporary files in a directory.
type Storage struct {
	dir string
}

func NewLocalStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// Create creates a uniquely named file in the storage directory.
func (s *Storage) Create(_ context.Context) (string, io.WriteCloser, error) {
	file, err := os.CreateTemp(s.dir, filePrefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create file in %s: %w", s.dir, err)
	}
	return filepath.Base(file.Name()), file, nil
}

func (s *Storage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return file, nil
}

// Delete removes a run file.
func (s *Storage) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", name, err)
	}
	return nil
}

// List lists the run files present in the storage directory.
func (s *Storage) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), filePrefix) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
