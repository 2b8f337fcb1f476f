package utils

import (
	"context"
	"sync"
	"time"
)

const oauthStatePrefix = "clubdev:oauth:state:"

var (
	oauthStates   = map[string]time.Time{}
	oauthStatesMu sync.Mutex
)

// SaveState stores a single-use OAuth state token against CSRF on the
// callback.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := GetRedis().Set(ctx, oauthStatePrefix+state, "1", ttl).Err(); err == nil {
		return
	}
	oauthStatesMu.Lock()
	oauthStates[state] = time.Now().Add(ttl)
	oauthStatesMu.Unlock()
}

// ConsumeState validates a state token and removes it so it cannot be
// replayed.
func ConsumeState(state string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if v, err := GetRedis().GetDel(ctx, oauthStatePrefix+state).Result(); err == nil {
		return v != ""
	}

	oauthStatesMu.Lock()
	expiresAt, ok := oauthStates[state]
	if ok {
		delete(oauthStates, state)
	}
	oauthStatesMu.Unlock()
	return ok && time.Now().Before(expiresAt)
}
