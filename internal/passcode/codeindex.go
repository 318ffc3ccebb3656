package passcode

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeIndex reserves passcodes in Redis. The key lives exactly as long
// as the passcode is redeemable, so an expired code frees its slot
// without any cleanup job.
type CodeIndex struct {
	client *redis.Client
	prefix string
}

// NewCodeIndex creates an index over the given client.
func NewCodeIndex(client *redis.Client) *CodeIndex {
	return &CodeIndex{client: client, prefix: "portal:passcode:"}
}

var _ CodeReserver = (*CodeIndex)(nil)

// Reserve claims a code for ttl. Returns false when another unexpired
// session already holds it.
func (i *CodeIndex) Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	return i.client.SetNX(ctx, i.prefix+code, "1", ttl).Result()
}
