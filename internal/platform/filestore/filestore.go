// Package filestore provides storage for uploaded report documents. It
// defines the Store interface, a disk-backed implementation rooted at the
// configured upload directory, and an in-memory implementation for tests.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrFileExists      = errors.New("file already exists")
)

// Store defines the contract for report file storage backends.
type Store interface {
	Save(ctx context.Context, fileName string, content io.Reader) (int64, error)
	Open(ctx context.Context, fileName string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileName string) error
	Exists(ctx context.Context, fileName string) (bool, error)
}

// validName rejects names that could escape the storage root. Stored names
// are always flat: no separators, no parent references.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Disk implementation
// ---------------------------------------------------------------------------

// DiskStore stores files under a single root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed and returns a DiskStore.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes content to a new file and returns the number of bytes written.
// Fails if a file with the same name already exists.
func (s *DiskStore) Save(_ context.Context, fileName string, content io.Reader) (int64, error) {
	if !validName(fileName) {
		return 0, ErrInvalidFileName
	}

	path := filepath.Join(s.root, fileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return 0, ErrFileExists
		}
		return 0, fmt.Errorf("create file %s: %w", fileName, err)
	}

	n, err := io.Copy(f, content)
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("write file %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close file %s: %w", fileName, err)
	}

	return n, nil
}

// Open returns a reader over the stored file.
func (s *DiskStore) Open(_ context.Context, fileName string) (io.ReadCloser, error) {
	if !validName(fileName) {
		return nil, ErrInvalidFileName
	}

	f, err := os.Open(filepath.Join(s.root, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", fileName, err)
	}
	return f, nil
}

// Delete removes a stored file.
func (s *DiskStore) Delete(_ context.Context, fileName string) error {
	if !validName(fileName) {
		return ErrInvalidFileName
	}

	if err := os.Remove(filepath.Join(s.root, fileName)); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("delete file %s: %w", fileName, err)
	}
	return nil
}

// Exists reports whether a file is present in the store.
func (s *DiskStore) Exists(_ context.Context, fileName string) (bool, error) {
	if !validName(fileName) {
		return false, ErrInvalidFileName
	}

	_, err := os.Stat(filepath.Join(s.root, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file %s: %w", fileName, err)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation (tests)
// ---------------------------------------------------------------------------

// MemStore is a thread-safe in-memory Store for tests.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore returns a ready-to-use MemStore.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Save(_ context.Context, fileName string, content io.Reader) (int64, error) {
	if !validName(fileName) {
		return 0, ErrInvalidFileName
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileName]; ok {
		return 0, ErrFileExists
	}
	s.files[fileName] = data
	return int64(len(data)), nil
}

func (s *MemStore) Open(_ context.Context, fileName string) (io.ReadCloser, error) {
	if !validName(fileName) {
		return nil, ErrInvalidFileName
	}

	s.mu.RLock()
	data, ok := s.files[fileName]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Delete(_ context.Context, fileName string) error {
	if !validName(fileName) {
		return ErrInvalidFileName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileName]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, fileName)
	return nil
}

func (s *MemStore) Exists(_ context.Context, fileName string) (bool, error) {
	if !validName(fileName) {
		return false, ErrInvalidFileName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[fileName]
	return ok, nil
}
