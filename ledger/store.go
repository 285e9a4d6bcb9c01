// Package ledger 账本核心：账户、类别、预算、流水及其一致性规则
package ledger

import (
	"context"
	"math/rand"
	"time"

	"fintrack/logger"

	"gorm.io/gorm"
)

const (
	defaultImportTimeout = 30 * time.Second
	defaultSeedDays      = 45
)

// Store 按用户隔离的账本存储
type Store struct {
	db            *gorm.DB
	now           func() time.Time
	rand          *rand.Rand
	importTimeout time.Duration
	seedDays      int
	log           *logger.Logger
}

// Option Store 可选配置
type Option func(*Store)

// WithClock 替换当前时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithImportTimeout 设置批量导入的时间上限
func WithImportTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.importTimeout = d
		}
	}
}

// WithSeedDays 设置示例数据覆盖的天数
func WithSeedDays(days int) Option {
	return func(s *Store) {
		if days > 0 {
			s.seedDays = days
		}
	}
}

// WithRand 指定示例数据使用的随机源
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rand = r }
}

// WithLogger 指定日志器
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.WithComponent("ledger")
		}
	}
}

// NewStore 创建账本存储
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:            db,
		now:           time.Now,
		importTimeout: defaultImportTimeout,
		seedDays:      defaultSeedDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	clock := s.now
	s.now = func() time.Time { return localTime(clock()) }
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	if s.log == nil {
		s.log = logger.FromContext(context.Background()).WithComponent("ledger")
	}
	return s
}

func requireUser(userID uint) error {
	if userID == 0 {
		return unauthorized()
	}
	return nil
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Page 分页参数
type Page struct {
	Page     int
	PageSize int
}

// Normalize 默认第 1 页，每页 10 条，最多 100 条
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

// localTime 统一换算到服务器时区后再落库或作为查询边界
// sqlite 以带偏移量的文本保存时间并按字符串比较，偏移量不一致时区间判断会出错
func localTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(time.Local)
}

// DayStart 服务器时区下当天零点
func DayStart(t time.Time) time.Time {
	y, m, d := localTime(t).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := localTime(t).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
