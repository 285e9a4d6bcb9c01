package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// slidingWindow 按 key 记录窗口内的请求时间
type slidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   map[string][]time.Time
	sweep  time.Time
}

func newSlidingWindow(max int, window time.Duration) *slidingWindow {
	return &slidingWindow{max: max, window: window, hits: make(map[string][]time.Time)}
}

// allow 记录一次请求，超过上限返回 false
func (w *slidingWindow) allow(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	if now.Sub(w.sweep) > w.window {
		for k, ts := range w.hits {
			if kept := prune(ts, cutoff); len(kept) == 0 {
				delete(w.hits, k)
			} else {
				w.hits[k] = kept
			}
		}
		w.sweep = now
	}

	ts := prune(w.hits[key], cutoff)
	if len(ts) >= w.max {
		w.hits[key] = ts
		return false
	}
	w.hits[key] = append(ts, now)
	return true
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// RateLimit 按 key 限流，窗口内最多 max 次，超过返回 429
func RateLimit(max int, window time.Duration, key func(c *gin.Context) string, message string) gin.HandlerFunc {
	limiter := newSlidingWindow(max, window)
	return func(c *gin.Context) {
		if !limiter.allow(key(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": message,
			})
			return
		}
		c.Next()
	}
}

// LoginRateLimit 登录注册接口按 IP 限流
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	return RateLimit(maxAttempts, window, func(c *gin.Context) string {
		return c.ClientIP()
	}, "登录尝试过于频繁，请稍后再试")
}

// UserRateLimit 按登录用户限流，用于导入、AI 分析等耗时接口
func UserRateLimit(max int, window time.Duration) gin.HandlerFunc {
	return RateLimit(max, window, func(c *gin.Context) string {
		if id := GetCurrentUserID(c); id != 0 {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
		return "ip:" + c.ClientIP()
	}, "请求过于频繁，请稍后再试")
}
