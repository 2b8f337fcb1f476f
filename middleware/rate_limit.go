package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/utils"
)

const visitorTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors   = map[string]*visitor{}
	visitorsMu sync.Mutex
)

// RateLimitMiddleware throttles requests per client IP with a token bucket
// sized from config. State is in-process only.
func RateLimitMiddleware() gin.HandlerFunc {
	cfg := config.Get()
	perMinute := max(cfg.RateLimitPerMinute, 1)
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := max(perMinute/2, 1)

	return func(ctx *gin.Context) {
		if !visitorAllow(ctx.ClientIP(), limit, burst) {
			utils.Error(ctx, 429, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func visitorAllow(ip string, limit rate.Limit, burst int) bool {
	visitorsMu.Lock()
	defer visitorsMu.Unlock()

	now := time.Now()
	for key, v := range visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(visitors, key)
		}
	}

	v, ok := visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}
