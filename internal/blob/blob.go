// Package blob stores attachment bytes outside the database.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mtlprog/teamtask/internal/domain"
)

// ErrTooLarge is returned when the content exceeds the size limit.
var ErrTooLarge = fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, domain.MaxAttachmentSize)

// Store writes and removes attachment blobs.
type Store interface {
	// Put writes r under a fresh collision-free name that keeps the
	// extension of originalName and returns the stored path.
	Put(ctx context.Context, r io.Reader, originalName string) (string, error)
	// Delete removes a stored blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
}

// FileStore keeps blobs as files in one directory.
type FileStore struct {
	dir     string
	maxSize int64
}

// NewFileStore creates the directory if needed and returns a FileStore rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create blob dir: %v", domain.ErrStorage, err)
	}
	return &FileStore{dir: dir, maxSize: domain.MaxAttachmentSize}, nil
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(originalName)
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: create blob: %v", domain.ErrStorage, err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("%w: write blob: %v", domain.ErrStorage, copyErr)
	case closeErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("%w: close blob: %v", domain.ErrStorage, closeErr)
	case written > s.maxSize:
		_ = os.Remove(full)
		return "", ErrTooLarge
	}

	return name, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(path); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete blob: %v", domain.ErrStorage, err)
	}
	return nil
}

// validateName accepts only names produced by Put.
func validateName(name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("%w: invalid blob path %q", domain.ErrStorage, name)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if _, err := uuid.Parse(stem); err != nil {
		return fmt.Errorf("%w: invalid blob path %q", domain.ErrStorage, name)
	}
	return nil
}
