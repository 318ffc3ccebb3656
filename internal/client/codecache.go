package client

import (
	"encoding/json"
	"time"

	"slpportal/internal/countdown"
	"slpportal/internal/passcode"
)

const codeCacheKey = "lastGeneratedCode"

// CodeCache keeps the last generated passcode in session-scoped storage
// so the countdown survives a reload within the same browser session.
// Expired entries are purged on read so a reload can never resurrect a
// dead code.
type CodeCache struct {
	kv  KV
	now func() time.Time
}

// NewCodeCache creates a cache over the given session-scoped KV.
func NewCodeCache(kv KV) *CodeCache {
	return &CodeCache{kv: kv, now: time.Now}
}

// Save stores a freshly issued passcode.
func (c *CodeCache) Save(issued passcode.Issued) error {
	raw, err := json.Marshal(issued)
	if err != nil {
		return err
	}
	c.kv.Set(codeCacheKey, string(raw))
	return nil
}

// Load returns the cached passcode if it is still unexpired. An absent,
// malformed, or expired entry returns false; expired and malformed
// entries are purged.
func (c *CodeCache) Load() (passcode.Issued, bool) {
	raw, ok := c.kv.Get(codeCacheKey)
	if !ok {
		return passcode.Issued{}, false
	}
	var issued passcode.Issued
	if err := json.Unmarshal([]byte(raw), &issued); err != nil || issued.Passcode == "" {
		c.Purge()
		return passcode.Issued{}, false
	}
	if !c.now().Before(issued.Expires) {
		c.Purge()
		return passcode.Issued{}, false
	}
	return issued, true
}

// Purge removes the cached entry.
func (c *CodeCache) Purge() { c.kv.Delete(codeCacheKey) }

// Restore re-enters the countdown from the cache on view load. It
// returns the cached code and true when a live code was found; otherwise
// the countdown stays Hidden and the stale entry is gone.
func (c *CodeCache) Restore(cd *countdown.Countdown) (passcode.Issued, bool) {
	issued, ok := c.Load()
	if !ok {
		return passcode.Issued{}, false
	}
	cd.Start(issued.Expires)
	return issued, true
}
