package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TranscriptionKey identifies a transcription result by audio content,
// container type and backend.
func TranscriptionKey(audio []byte, mimeType, provider string) string {
	h := sha256.New()
	h.Write(audio)
	h.Write([]byte{0})
	h.Write([]byte(mimeType))
	h.Write([]byte{0})
	h.Write([]byte(provider))
	return "transcription:" + hex.EncodeToString(h.Sum(nil))
}

func JobKey(jobID string) string { return "memo:job:" + jobID }

// MemoryCache is the in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	val     []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]memoryItem{}, now: time.Now}
}

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	it, ok := c.items[key]
	if ok && !it.expires.IsZero() && c.now().After(it.expires) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(it.val, dst); err != nil {
		_ = c.Del(context.Background(), key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	it := memoryItem{val: b}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}
