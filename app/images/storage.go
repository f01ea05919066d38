package images

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrImageNotFound is returned when a stored image file does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrInvalidName is returned for empty names or names that escape the storage root.
	ErrInvalidName = errors.New("invalid image name")
)

// Storage holds image files keyed by their file name.
type Storage interface {
	// Write stores data under name, replacing any existing file.
	Write(ctx context.Context, name string, data []byte) error

	// Delete removes the file stored under name. A missing file is not an error.
	Delete(ctx context.Context, name string) error

	// Read returns the bytes stored under name, or ErrImageNotFound.
	Read(ctx context.Context, name string) ([]byte, error)
}

var _ Storage = (*DiskStorage)(nil)

// DiskStorage keeps images as plain files in a single directory, which is
// also the directory served under PublicPrefix.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates the directory if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

// Dir returns the directory backing the storage.
func (s *DiskStorage) Dir() string {
	return s.dir
}

// Write writes data to a temporary file first and renames it into place so
// readers never observe a partially written image.
func (s *DiskStorage) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.path(name)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move image file into place: %w", err)
	}

	return nil
}

func (s *DiskStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}

	return nil
}

func (s *DiskStorage) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

func (s *DiskStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}
