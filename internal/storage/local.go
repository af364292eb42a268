package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadsPath is the URL prefix local uploads are served under.
const UploadsPath = "/uploads/"

// LocalStore writes uploads to a directory served statically under /uploads.
type LocalStore struct {
	dir           string
	publicBaseURL string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir, publicBaseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, upload Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := CheckImage(upload, 0)
	if err != nil {
		return "", err
	}

	key := uuid.NewString() + info.Extension
	if err := writeBytesToFile(filepath.Join(s.dir, key), upload.Data); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return key, nil
}

// Delete removes key. A file that is already gone is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) URL(key, requestBaseURL string) string {
	base := s.publicBaseURL
	if base == "" {
		base = strings.TrimRight(requestBaseURL, "/")
	}
	return base + UploadsPath + key
}

// path resolves key inside the upload directory, rejecting traversal.
func (s *LocalStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid upload key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
