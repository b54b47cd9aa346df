package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Text string `json:"text"`
}

func TestTranscriptionKey(t *testing.T) {
	a := TranscriptionKey([]byte("audio"), "audio/webm", "gemini")
	assert.Equal(t, a, TranscriptionKey([]byte("audio"), "audio/webm", "gemini"))
	assert.NotEqual(t, a, TranscriptionKey([]byte("audio"), "audio/webm", "speech"))
	assert.NotEqual(t, a, TranscriptionKey([]byte("audio"), "audio/ogg", "gemini"))
	assert.NotEqual(t, a, TranscriptionKey([]byte("audi"), "oaudio/webm", "gemini"))
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	var got entry
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, key, entry{Text: "今日は会議です。"}, time.Minute))
	hit, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "今日は会議です。", got.Text)

	require.NoError(t, c.Del(ctx, key))
	hit, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(context.Background(), "k", entry{Text: "x"}, time.Second))
	now = now.Add(2 * time.Second)

	var got entry
	hit, err := c.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCache_CorruptEntryIsMiss(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.SetJSON(context.Background(), "k", "plain string", 0))

	var got entry
	hit, err := c.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

// Runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	exerciseCache(t, NewRedisCache(rdb, "voicememo-test:"))
}
