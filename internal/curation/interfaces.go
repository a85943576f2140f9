package curation

import "context"

// ReferenceStore receives accepted, canonicalized reference samples. The
// curator decides which images qualify and in what form; where they land
// is the store's concern.
type ReferenceStore interface {
	// Put writes one encoded JPEG sample under the given group.
	Put(ctx context.Context, group, name string, jpegData []byte) error
}
