package objstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type ObjectReader interface {
	Open(key string) (io.ReadCloser, error)
}

// Scratch is a temporary directory owned by a single run. Objects are
// addressed by key relative to the directory. Close removes everything.
type Scratch struct {
	basePath string
}

// NewScratch creates a new temporary directory named after pattern.
func NewScratch(pattern string) (*Scratch, error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &Scratch{basePath: dir}, nil
}

func (s *Scratch) Dir() string {
	return s.basePath
}

// Path returns the filesystem path for key.
func (s *Scratch) Path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

func (s *Scratch) Open(key string) (io.ReadCloser, error) {
	return os.Open(s.Path(key))
}

// Close removes the directory and its contents. Calling it again is a no-op.
func (s *Scratch) Close() error {
	if s.basePath == "" {
		return nil
	}
	err := os.RemoveAll(s.basePath)
	s.basePath = ""
	return err
}
