package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/pinboard/pkg/response"
)

// RateLimit 按客户端 IP 令牌桶限流，长时间未访问的桶会被回收
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	type visitor struct {
		limiter *rate.Limiter
		seen    time.Time
	}
	var (
		mu       sync.Mutex
		visitors = map[string]*visitor{}
		lastGC   = time.Now()
	)
	const idle = 10 * time.Minute

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastGC) > idle {
			for k, v := range visitors {
				if now.Sub(v.seen) > idle {
					delete(visitors, k)
				}
			}
			lastGC = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[ip] = v
		}
		v.seen = now
		allowed := v.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			response.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
