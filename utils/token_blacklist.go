package utils

import (
	"context"
	"sync"
	"time"
)

const blockedTokenPrefix = "clubdev:jwt:blocked:"

// Logout revokes tokens before their natural expiry. Redis carries the
// revocation with a TTL; the in-memory map only covers a redis outage on a
// single instance.
var (
	revokedTokens   = map[string]time.Time{}
	revokedTokensMu sync.RWMutex
)

// BlacklistToken marks a token as revoked until it would expire anyway.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := GetRedis().Set(ctx, blockedTokenPrefix+token, "1", ttl).Err(); err == nil {
		return
	}
	revokedTokensMu.Lock()
	revokedTokens[token] = expiresAt
	revokedTokensMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked. A redis error
// fails open so an outage cannot lock every user out.
func IsTokenBlacklisted(token string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if n, err := GetRedis().Exists(ctx, blockedTokenPrefix+token).Result(); err == nil && n > 0 {
		return true
	}

	revokedTokensMu.RLock()
	expiresAt, ok := revokedTokens[token]
	revokedTokensMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedTokensMu.Lock()
		delete(revokedTokens, token)
		revokedTokensMu.Unlock()
		return false
	}
	return true
}
