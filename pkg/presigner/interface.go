package presigner

import (
	"context"
	"time"
)

// Operation selects which object-storage action a presigned URL permits.
type Operation string

const (
	GetObject Operation = "get_object"
	PutObject Operation = "put_object"
)

// RequestPresigner mints temporary access URLs scoped to one stored object.
//
// URLs are cryptographically signed, time-bounded capabilities. They are
// handed to the submission pipeline or to API callers and are never persisted
// by this service.
type RequestPresigner interface {
	// PresignURL creates and signs a URL that permits op on bucket/key until
	// expiry elapses. versionID may be empty to address the latest version of
	// the object.
	PresignURL(ctx context.Context, bucket string, key string, versionID string, expiry time.Duration, op Operation) (string, error)
}
