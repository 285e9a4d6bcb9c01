package ledger

import (
	"context"
	"sort"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Overview 首页概览：总余额与本月收支
type Overview struct {
	TotalBalance       decimal.Decimal      `json:"total_balance"`
	MonthlyIncome      decimal.Decimal      `json:"monthly_income"`
	MonthlyExpense     decimal.Decimal      `json:"monthly_expense"`
	MonthlyNet         decimal.Decimal      `json:"monthly_net"`
	AccountCount       int64                `json:"account_count"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// 统计区间类型
const (
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeYear   = "year"
	RangeCustom = "custom"
)

// maxCustomRangeYears 自定义区间的最大跨度，每日序列按天展开
const maxCustomRangeYears = 3

// StatsRange 统计区间，[Start, End) 左闭右开
type StatsRange struct {
	Type  string
	Start time.Time
	End   time.Time
}

// CategoryStat 单个类别的支出统计
type CategoryStat struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
	Percentage float64         `json:"percentage"`
}

// DailyPoint 单日收支
type DailyPoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Statistics 区间统计结果
type Statistics struct {
	RangeType     string          `json:"range_type"`
	Start         string          `json:"start"`
	End           string          `json:"end"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	Net           decimal.Decimal `json:"net"`
	TotalCount    int64           `json:"total_count"`
	CategoryStats []CategoryStat  `json:"category_stats"`
	Daily         []DailyPoint    `json:"daily"`
}

// ResolveRange 计算统计区间：week 为最近 7 天，month/year 为 anchor 所在的自然月/年
// custom 使用 start 和 end 两个日期（均含当天）
func ResolveRange(rangeType string, anchor, start, end time.Time) (StatsRange, error) {
	switch rangeType {
	case RangeWeek:
		to := DayStart(anchor).AddDate(0, 0, 1)
		return StatsRange{Type: rangeType, Start: to.AddDate(0, 0, -7), End: to}, nil
	case RangeMonth, "":
		from := monthStart(anchor)
		return StatsRange{Type: RangeMonth, Start: from, End: from.AddDate(0, 1, 0)}, nil
	case RangeYear:
		from := time.Date(localTime(anchor).Year(), 1, 1, 0, 0, 0, 0, time.Local)
		return StatsRange{Type: rangeType, Start: from, End: from.AddDate(1, 0, 0)}, nil
	case RangeCustom:
		if start.IsZero() || end.IsZero() {
			return StatsRange{}, invalid("自定义区间需要开始和结束日期")
		}
		from, to := DayStart(start), DayStart(end).AddDate(0, 0, 1)
		if !from.Before(to) {
			return StatsRange{}, invalid("结束日期不能早于开始日期")
		}
		if to.After(from.AddDate(maxCustomRangeYears, 0, 0)) {
			return StatsRange{}, invalid("自定义区间不能超过 %d 年", maxCustomRangeYears)
		}
		return StatsRange{Type: rangeType, Start: from, End: to}, nil
	default:
		return StatsRange{}, invalid("range_type 参数值错误，可选值：week、month、year、custom")
	}
}

func sumByType(db *gorm.DB, userID uint, entryType string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?", userID, entryType, from, to).
		Row().Scan(&total)
	return total.Round(2), err
}

// Overview 总余额与本月收支
func (s *Store) Overview(ctx context.Context, userID uint) (*Overview, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	out := &Overview{}

	if err := db.Model(&models.Account{}).Select("COALESCE(SUM(balance), 0)").
		Where("user_id = ?", userID).Row().Scan(&out.TotalBalance); err != nil {
		return nil, classify(err, "统计余额")
	}
	out.TotalBalance = out.TotalBalance.Round(2)
	if err := db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&out.AccountCount).Error; err != nil {
		return nil, classify(err, "统计账户")
	}

	from := monthStart(s.now())
	to := from.AddDate(0, 1, 0)
	var err error
	if out.MonthlyIncome, err = sumByType(db, userID, models.TypeIncome, from, to); err != nil {
		return nil, classify(err, "统计收入")
	}
	if out.MonthlyExpense, err = sumByType(db, userID, models.TypeExpense, from, to); err != nil {
		return nil, classify(err, "统计支出")
	}
	out.MonthlyNet = out.MonthlyIncome.Sub(out.MonthlyExpense)

	if err := db.Preload("Category").Preload("Account").Where("user_id = ?", userID).
		Order("date DESC, id DESC").Limit(5).Find(&out.RecentTransactions).Error; err != nil {
		return nil, classify(err, "查询最近交易")
	}
	return out, nil
}

// Statistics 区间收支、按类别支出占比和每日序列
func (s *Store) Statistics(ctx context.Context, userID uint, r StatsRange) (*Statistics, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	r.Start, r.End = localTime(r.Start), localTime(r.End)
	db := s.conn(ctx)
	out := &Statistics{
		RangeType: r.Type,
		Start:     r.Start.Format("2006-01-02"),
		End:       r.End.AddDate(0, 0, -1).Format("2006-01-02"),
	}

	var err error
	if out.TotalIncome, err = sumByType(db, userID, models.TypeIncome, r.Start, r.End); err != nil {
		return nil, classify(err, "统计收入")
	}
	if out.TotalExpense, err = sumByType(db, userID, models.TypeExpense, r.Start, r.End); err != nil {
		return nil, classify(err, "统计支出")
	}
	out.Net = out.TotalIncome.Sub(out.TotalExpense)

	var txns []models.Transaction
	if err := db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date < ?", userID, r.Start, r.End).
		Order("date").Find(&txns).Error; err != nil {
		return nil, classify(err, "查询交易")
	}
	out.TotalCount = int64(len(txns))
	out.CategoryStats = categoryStats(txns, out.TotalExpense)
	out.Daily = dailySeries(txns, r)
	return out, nil
}

func categoryStats(txns []models.Transaction, totalExpense decimal.Decimal) []CategoryStat {
	byID := map[uint]*CategoryStat{}
	for _, t := range txns {
		if t.Type != models.TypeExpense {
			continue
		}
		st, ok := byID[t.CategoryID]
		if !ok {
			st = &CategoryStat{CategoryID: t.CategoryID}
			if t.Category != nil {
				st.Name, st.Color, st.Icon = t.Category.Name, t.Category.Color, t.Category.Icon
			}
			byID[t.CategoryID] = st
		}
		st.Total = st.Total.Add(t.Amount)
		st.Count++
	}

	stats := make([]CategoryStat, 0, len(byID))
	for _, st := range byID {
		if totalExpense.IsPositive() {
			st.Percentage, _ = st.Total.Div(totalExpense).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if !stats[i].Total.Equal(stats[j].Total) {
			return stats[i].Total.GreaterThan(stats[j].Total)
		}
		return stats[i].CategoryID < stats[j].CategoryID
	})
	return stats
}

func dailySeries(txns []models.Transaction, r StatsRange) []DailyPoint {
	idx := map[string]int{}
	var points []DailyPoint
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		idx[key] = len(points)
		points = append(points, DailyPoint{Date: key, Income: decimal.Zero, Expense: decimal.Zero})
	}
	for _, t := range txns {
		i, ok := idx[t.Date.In(r.Start.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		if t.Type == models.TypeIncome {
			points[i].Income = points[i].Income.Add(t.Amount)
		} else {
			points[i].Expense = points[i].Expense.Add(t.Amount)
		}
	}
	return points
}
