package port

import (
	"context"
	"time"
)

// FileStorage defines document storage operations.
// Paths are relative to the storage root.
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
}

// URLSigner mints and verifies time-limited retrieval URLs for stored documents
type URLSigner interface {
	SignURL(path string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (string, error)
}
