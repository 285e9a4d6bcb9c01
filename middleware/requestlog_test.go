package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/config"
	"fintrack/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger(logger.New(config.LogConfig{Level: "debug", Format: "json"}, buf)))
	router.GET("/items/:id", func(c *gin.Context) {
		logger.FromContext(c.Request.Context()).Info("handler")
		c.Set(ContextUserID, uint(7))
		c.String(200, "ok")
	})
	router.GET("/boom", func(c *gin.Context) { c.Status(500) })
	return router
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/items/3", nil))

	id := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "handler", lines[0]["msg"])
	assert.Equal(t, id, lines[0][logger.FieldRequestID])

	access := lines[1]
	assert.Equal(t, "INFO", access["level"])
	assert.Equal(t, "/items/:id", access[logger.FieldPath])
	assert.Equal(t, float64(200), access[logger.FieldStatus])
	assert.Equal(t, float64(7), access[logger.FieldUserID])
	assert.Equal(t, "http", access[logger.FieldComponent])
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	var buf bytes.Buffer
	router := newLoggedRouter(&buf)

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(HeaderRequestID, incoming)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, incoming, w.Header().Get(HeaderRequestID))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0]["level"])

	// 非 uuid 的请求 ID 被替换
	buf.Reset()
	req = httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(HeaderRequestID, "<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(HeaderRequestID))
}
