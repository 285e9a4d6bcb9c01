package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/config"
	"fintrack/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		kind error
		code int
	}{
		{ledger.ErrUnauthorized, http.StatusUnauthorized},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrValidation, http.StatusBadRequest},
		{ledger.ErrConflict, http.StatusConflict},
		{ledger.ErrTransient, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.kind.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			err := fmt.Errorf("wrapped: %w", &ledger.Error{Kind: tc.kind, Message: "提示信息"})
			RespondError(c, err, "操作失败")

			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), "提示信息")
			if tc.code == http.StatusServiceUnavailable {
				assert.Equal(t, "5", w.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRespondError_HidesInternalDetailsInRelease(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{Server: config.ServerConfig{Mode: "release"}}
	defer func() { config.GlobalConfig = nil }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	RespondError(c, errors.New("dial tcp 10.0.0.1:3306: connect: refused"), "查询失败")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "查询失败")
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}
