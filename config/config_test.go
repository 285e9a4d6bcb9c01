package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式返回 fallback，不暴露错误详情
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// GlobalConfig 为 nil 时返回 err.Error()（视为开发环境）
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 30*time.Second, cfg.Ledger.ImportTimeout)
	assert.Equal(t, 45, cfg.Ledger.SeedDays)
	assert.False(t, cfg.AI.Configured())
	assert.Same(t, cfg, GetConfig())
}

func TestLoadConfig_ExternalFileAndEnv(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  mode: release\nledger:\n  import_timeout_seconds: 5\nai:\n  enabled: true\n  api_key: sk-test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FINANCE_SERVER_PORT", ":9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Ledger.ImportTimeout)
	assert.True(t, cfg.AI.Configured())
	// 未覆盖的字段保留内置默认值
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestGetConfig_PanicsWhenUnset(t *testing.T) {
	GlobalConfig = nil
	assert.Panics(t, func() { GetConfig() })
}
