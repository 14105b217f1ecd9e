package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted product image (2 MiB)
const MaxImageSize = 2 << 20

var (
	ErrImageTooLarge        = errors.New("image exceeds the maximum allowed size")
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

// allowedImageTypes are the accepted MIME types, detected from file
// content rather than the uploaded filename.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// MediaStore persists uploaded media and hands back public URLs
type MediaStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// DiskStore stores media files on the local filesystem. Files are
// publicly reachable under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the storage directory when missing
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save reads the upload, checks size and sniffed MIME type, and writes
// it under a fresh name. Returns the public URL of the stored file.
func (s *DiskStore) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !allowedImageTypes[mt.String()] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, mt.String())
	}

	filename := uuid.New().String() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}

// Remove deletes the file behind a previously returned URL. URLs outside
// the store and files already gone are ignored.
func (s *DiskStore) Remove(ctx context.Context, url string) error {
	if url == "" || !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}

	// filepath.Base strips any traversal from the stored name
	filename := filepath.Base(strings.TrimPrefix(url, s.baseURL+"/"))

	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}

	return nil
}
