package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for names escaping the base directory.
var ErrInvalidPath = errors.New("storage: invalid path")

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./archive"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// PendingFile is a file being written. Nothing is visible under its final
// name until Commit succeeds.
type PendingFile struct {
	file  *os.File
	final string
	done  bool
}

// Create opens a temporary file that becomes filename on Commit.
func (s *LocalStorage) Create(filename string) (*PendingFile, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.CreateTemp(filepath.Dir(path), ".pending-*")
	if err != nil {
		return nil, fmt.Errorf("create storage file: %w", err)
	}
	return &PendingFile{file: file, final: path}, nil
}

func (p *PendingFile) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

// Commit closes the file and moves it to its final name.
func (p *PendingFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	if err := p.file.Close(); err != nil {
		os.Remove(p.file.Name()) //nolint:errcheck
		return fmt.Errorf("close storage file: %w", err)
	}
	if err := os.Rename(p.file.Name(), p.final); err != nil {
		os.Remove(p.file.Name()) //nolint:errcheck
		return fmt.Errorf("commit storage file: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.file.Close()           //nolint:errcheck
	os.Remove(p.file.Name()) //nolint:errcheck
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}
	return file, nil
}

// Copy streams a stored file into w.
func (s *LocalStorage) Copy(w io.Writer, filename string) (int64, error) {
	file, err := s.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close() //nolint:errcheck
	n, err := io.Copy(w, file)
	if err != nil {
		return n, fmt.Errorf("read storage file: %w", err)
	}
	return n, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete storage file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(filename))
	if filename == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.baseDir, clean), nil
}
