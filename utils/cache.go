package utils

import (
	"context"
	"encoding/json"
	"time"
)

const cacheDefaultTTL = time.Hour

func cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

// CacheGetBytes reads a cached value. A miss and a redis error look the
// same to the caller; both mean "go to the database".
func CacheGetBytes(key string) ([]byte, bool) {
	ctx, cancel := cacheContext()
	defer cancel()
	b, err := GetRedis().Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// CacheSetBytes stores raw bytes under a key. Failures are logged and
// swallowed, caching is best effort.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = cacheDefaultTTL
	}
	ctx, cancel := cacheContext()
	defer cancel()
	if err := GetRedis().Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache set %s: %v", key, err)
	}
}

// CacheSetJSON marshals v and caches the JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidateByPrefix removes every key under a prefix. SCAN keeps the
// traversal incremental; deletes are batched through a pipeline.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var cursor uint64
	for round := 0; round < 10; round++ {
		keys, next, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			pipe := rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
