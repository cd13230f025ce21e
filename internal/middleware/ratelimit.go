package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SubmitRateLimit throttles order submission per client IP: at most
// burst requests, refilling one every interval. Matches the original
// deployment's 5 submissions per 15 minutes.
func SubmitRateLimit(interval time.Duration, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Every(interval), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Çok fazla sipariş talebi gönderdiniz. Lütfen 15 dakika sonra tekrar deneyin.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
