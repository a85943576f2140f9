package curation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore writes reference samples to a local directory, preserving the
// category/brand substructure of the candidate tree.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed reference store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Put writes one sample to root/group/name.
func (s *FSStore) Put(ctx context.Context, group, name string, jpegData []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.root, group)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reference group dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), jpegData, 0o644); err != nil {
		return fmt.Errorf("write reference sample: %w", err)
	}
	return nil
}
