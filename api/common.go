package api

import (
	"strconv"
	"strings"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/ledger"
	"fintrack/logger"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// storeFor 基于全局数据库连接创建本次请求使用的账本存储
func storeFor(c *gin.Context) *ledger.Store {
	opts := []ledger.Option{ledger.WithLogger(logger.FromContext(c.Request.Context()))}
	if cfg := config.GlobalConfig; cfg != nil {
		opts = append(opts,
			ledger.WithImportTimeout(cfg.Ledger.ImportTimeout),
			ledger.WithSeedDays(cfg.Ledger.SeedDays),
		)
	}
	return ledger.NewStore(database.DB, opts...)
}

// idParam 解析路径中的 :id
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// optionalUint 解析可选的数字查询参数，空串返回 0
func optionalUint(s string) (uint, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

// parseDate 解析 2006-01-02 格式日期
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
}

// parseDateTime 接受日期或日期时间，带偏移量的时间换算到服务器时区
func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.In(time.Local), nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: dateLayout, Value: s}
}

