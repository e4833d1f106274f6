package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore writes downloaded document bytes to a content-addressed layout:
// {root}/{jurisdiction_id}/{content_hash}.{ext}. The returned path is the
// durable blob_reference stored with each document version.
type BlobStore struct {
	root string
}

// NewBlobStore creates a BlobStore rooted at dir.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{root: dir}
}

// Save writes data for (jurisdictionID, contentHash, ext) and returns the
// blob path. Content addressing makes the write idempotent: an existing
// blob with the same hash is left untouched.
func (b *BlobStore) Save(jurisdictionID, contentHash, ext string, data []byte) (string, error) {
	dir := filepath.Join(b.root, jurisdictionID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	path := filepath.Join(dir, contentHash+"."+ext)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return path, nil
}

// Read returns the bytes stored at a blob reference.
func (b *BlobStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}
