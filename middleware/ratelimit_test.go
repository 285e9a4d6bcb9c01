package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次
	router := gin.New()
	router.Use(LoginRateLimit(2, 200*time.Millisecond))
	router.POST("/login", func(c *gin.Context) {
		c.String(200, "ok")
	})

	// 同一 IP 连续 3 次，第 3 次应返回 429
	doReq := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/login", nil)
		req.Header.Set("X-Real-IP", ip)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w1 := doReq("192.168.1.1")
	w2 := doReq("192.168.1.1")
	w3 := doReq("192.168.1.1")

	assert.Equal(t, 200, w1.Code)
	assert.Equal(t, 200, w2.Code)
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")

	// 不同 IP 互不影响
	w4 := doReq("192.168.1.2")
	w5 := doReq("192.168.1.2")
	assert.Equal(t, 200, w4.Code)
	assert.Equal(t, 200, w5.Code)
}

func TestUserRateLimit_KeyedByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid == "1" {
			c.Set(ContextUserID, uint(1))
		} else if uid == "2" {
			c.Set(ContextUserID, uint(2))
		}
		c.Next()
	})
	router.Use(UserRateLimit(1, time.Minute))
	router.POST("/import", func(c *gin.Context) { c.String(200, "ok") })

	doReq := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/import", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, 200, doReq("1").Code)
	w := doReq("1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":429`)
	assert.Equal(t, 200, doReq("2").Code)
}

func TestSlidingWindow_ExpiresAndSweeps(t *testing.T) {
	w := newSlidingWindow(1, time.Second)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, w.allow("a", start))
	assert.False(t, w.allow("a", start.Add(500*time.Millisecond)))
	assert.True(t, w.allow("a", start.Add(1500*time.Millisecond)))

	assert.True(t, w.allow("b", start.Add(1600*time.Millisecond)))
	// 超过一个窗口后清理不活跃的 key
	assert.True(t, w.allow("c", start.Add(5*time.Second)))
	w.mu.Lock()
	_, hasA := w.hits["a"]
	_, hasB := w.hits["b"]
	w.mu.Unlock()
	assert.False(t, hasA)
	assert.False(t, hasB)
}
