package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// SignupDedup guards the post-signup reaction against redelivery: the
// dispatcher is at-least-once, so a processed identity is marked here and
// skipped on replay. Key format: provisioned:<identity_id>
type SignupDedup struct {
	client *redis.Client
}

// NewSignupDedup creates a SignupDedup wrapping the given Redis client.
func NewSignupDedup(client *redis.Client) *SignupDedup {
	return &SignupDedup{client: client}
}

// IsDuplicate reports whether the post-signup reaction already ran for this
// identity.
func (d *SignupDedup) IsDuplicate(ctx context.Context, identityID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(identityID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this identity has been provisioned. The key expires
// after dedupTTL; the membership upsert stays idempotent past that window.
func (d *SignupDedup) Mark(ctx context.Context, identityID string) error {
	return d.client.Set(ctx, d.key(identityID), "1", dedupTTL).Err()
}

func (d *SignupDedup) key(identityID string) string {
	return "provisioned:" + identityID
}
