package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/media/")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, dir
}

func pngPayload() []byte {
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
}

func jpegPayload() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
}

func webpPayload() []byte {
	payload := []byte("RIFF")
	payload = append(payload, 0x24, 0x00, 0x00, 0x00)
	payload = append(payload, []byte("WEBPVP8 ")...)
	return payload
}

func storedFilename(t *testing.T, url string) string {
	t.Helper()
	if !strings.HasPrefix(url, "/media/") {
		t.Fatalf("Expected URL under /media/, got %s", url)
	}
	return strings.TrimPrefix(url, "/media/")
}

func TestSaveDetectsImageTypeFromContent(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		wantExt string
	}{
		{"png", pngPayload(), ".png"},
		{"jpeg", jpegPayload(), ".jpg"},
		{"webp", webpPayload(), ".webp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, dir := newTestStore(t)

			url, err := store.Save(context.Background(), bytes.NewReader(tc.payload))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !strings.HasSuffix(url, tc.wantExt) {
				t.Errorf("Expected extension %s, got URL %s", tc.wantExt, url)
			}

			stored, err := os.ReadFile(filepath.Join(dir, storedFilename(t, url)))
			if err != nil {
				t.Fatalf("Stored file missing: %v", err)
			}
			if !bytes.Equal(stored, tc.payload) {
				t.Errorf("Stored content differs from upload")
			}
		})
	}
}

func TestSaveRejectsUnsupportedContent(t *testing.T) {
	store, dir := newTestStore(t)

	gif := append([]byte("GIF89a"), 0x01, 0x00, 0x01, 0x00)
	_, err := store.Save(context.Background(), bytes.NewReader(gif))
	if !errors.Is(err, ErrUnsupportedImageType) {
		t.Fatalf("Expected ErrUnsupportedImageType for gif, got: %v", err)
	}
	if !strings.Contains(err.Error(), "image/gif") {
		t.Errorf("Expected the detected type in the error, got: %v", err)
	}

	_, err = store.Save(context.Background(), strings.NewReader("just some text"))
	if !errors.Is(err, ErrUnsupportedImageType) {
		t.Errorf("Expected ErrUnsupportedImageType for text, got: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read store directory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Rejected uploads must not leave files behind, found %d", len(entries))
	}
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	store, dir := newTestStore(t)

	oversized := make([]byte, MaxImageSize+1)
	copy(oversized, pngPayload())
	_, err := store.Save(context.Background(), bytes.NewReader(oversized))
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("Expected ErrImageTooLarge, got: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read store directory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Oversized uploads must not leave files behind")
	}

	// Exactly at the limit is accepted
	atLimit := make([]byte, MaxImageSize)
	copy(atLimit, pngPayload())
	if _, err := store.Save(context.Background(), bytes.NewReader(atLimit)); err != nil {
		t.Errorf("Save at the size limit failed: %v", err)
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	url, err := store.Save(ctx, bytes.NewReader(pngPayload()))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	path := filepath.Join(dir, storedFilename(t, url))

	if err := store.Remove(ctx, url); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected stored file to be gone, stat returned: %v", err)
	}

	// Removing again is fine, the file is already gone
	if err := store.Remove(ctx, url); err != nil {
		t.Errorf("Remove of missing file failed: %v", err)
	}

	// URLs outside the store are ignored
	if err := store.Remove(ctx, "https://elsewhere.example.com/image.png"); err != nil {
		t.Errorf("Remove of foreign URL failed: %v", err)
	}
	if err := store.Remove(ctx, ""); err != nil {
		t.Errorf("Remove of empty URL failed: %v", err)
	}
}

func TestRemoveIgnoresPathTraversal(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "media")
	store, err := NewDiskStore(dir, "/media")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	victim := filepath.Join(parent, "victim.png")
	if err := os.WriteFile(victim, pngPayload(), 0o644); err != nil {
		t.Fatalf("Failed to plant file: %v", err)
	}

	if err := store.Remove(context.Background(), "/media/../victim.png"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("File outside the store directory was touched: %v", err)
	}
}
