package tokenstore

import (
	"context"
	"time"
)

// Store remembers revoked token ids until the token would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
