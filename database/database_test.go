package database

import (
	"path/filepath"
	"testing"

	"fintrack/config"
	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInit_SQLite(t *testing.T) {
	old := DB
	defer func() { DB = old }()

	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "data", "ledger.db"),
		LogLevel: "silent",
	}}
	require.NoError(t, Init(cfg))
	require.NotNil(t, GetDB())

	for _, table := range []any{&models.Account{}, &models.Category{}, &models.Budget{}, &models.Transaction{}, &models.AIInsight{}} {
		assert.True(t, DB.Migrator().HasTable(table))
	}
	// spent 不落库
	assert.False(t, DB.Migrator().HasColumn(&models.Budget{}, "spent"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel("INFO"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
