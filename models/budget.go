package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 预算周期，仅用于推算默认结束日期
const (
	PeriodWeekly  = "WEEKLY"
	PeriodMonthly = "MONTHLY"
	PeriodYearly  = "YEARLY"
)

// ValidPeriod 是否为合法的预算周期
func ValidPeriod(p string) bool {
	return p == PeriodWeekly || p == PeriodMonthly || p == PeriodYearly
}

// 预算状态
const (
	BudgetOnTrack    = "ON_TRACK"
	BudgetNearLimit  = "NEAR_LIMIT"
	BudgetOverBudget = "OVER_BUDGET"
	BudgetExpired    = "EXPIRED"
)

// Budget 预算
// Spent 及其派生字段在读取时计算，不落库
type Budget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"index;not null"`
	Name       string          `json:"name" gorm:"size:100;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Period     string          `json:"period" gorm:"size:10;not null;default:MONTHLY"`
	StartDate  time.Time       `json:"start_date" gorm:"not null"`
	EndDate    time.Time       `json:"end_date" gorm:"not null;index"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Categories []Category      `json:"categories" gorm:"foreignKey:BudgetID"`

	Spent     decimal.Decimal `json:"spent" gorm:"-"`
	Remaining decimal.Decimal `json:"remaining" gorm:"-"`
	Progress  float64         `json:"progress" gorm:"-"`
	Status    string          `json:"status" gorm:"-"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// EndExclusive 结束日期次日零点，结束日当天全天计入预算
func (b *Budget) EndExclusive() time.Time {
	return b.EndDate.AddDate(0, 0, 1)
}

// Expired 结束日期当天结束后视为过期
func (b *Budget) Expired(now time.Time) bool {
	return !now.Before(b.EndExclusive())
}

// ApplySpent 写入已花费金额并计算剩余、进度和状态
func (b *Budget) ApplySpent(spent decimal.Decimal, now time.Time) {
	b.Spent = spent
	b.Remaining = b.Amount.Sub(spent)
	if b.Amount.IsPositive() {
		b.Progress, _ = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	} else {
		b.Progress = 0
	}

	switch {
	case b.Expired(now):
		b.Status = BudgetExpired
	case spent.GreaterThan(b.Amount):
		b.Status = BudgetOverBudget
	case b.Progress > 80:
		b.Status = BudgetNearLimit
	default:
		b.Status = BudgetOnTrack
	}
}
