package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Annotator segments text into clauses and tags MONEY/PRODUCT spans.
// Implementations must be safe for concurrent use.
type Annotator interface {
	Segment(ctx context.Context, text, language string) ([]Clause, error)
}

// Extractor turns a chat message into a purchase intent.
type Extractor interface {
	Extract(ctx context.Context, text, language string) (*ExtractionResult, error)
}
