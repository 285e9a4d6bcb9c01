package ledger

import (
	"context"
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetInput 新建预算参数
// EndDate 为零值时按周期推算；StartDate 为零值时取今天
type BudgetInput struct {
	Name        string
	Amount      decimal.Decimal
	Period      string
	StartDate   time.Time
	EndDate     time.Time
	CategoryIDs []uint
}

// BudgetPatch 修改预算参数，nil 表示不修改
type BudgetPatch struct {
	Name        *string
	Amount      *decimal.Decimal
	Period      *string
	StartDate   *time.Time
	EndDate     *time.Time
	CategoryIDs []uint
}

// PeriodEnd 按周期推算结束日期（含当天）
func PeriodEnd(start time.Time, period string) time.Time {
	start = DayStart(start)
	switch period {
	case models.PeriodWeekly:
		return start.AddDate(0, 0, 6)
	case models.PeriodYearly:
		return start.AddDate(1, 0, -1)
	default:
		return start.AddDate(0, 1, -1)
	}
}

func normalizePeriod(p string) (string, error) {
	p = strings.ToUpper(strings.TrimSpace(p))
	if p == "" {
		return models.PeriodMonthly, nil
	}
	if !models.ValidPeriod(p) {
		return "", invalid("无效的预算周期: %s", p)
	}
	return p, nil
}

func validateBudget(b *models.Budget) error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("预算名称不能为空")
	}
	if !b.Amount.IsPositive() {
		return invalid("预算金额必须大于 0")
	}
	if b.EndDate.Before(b.StartDate) {
		return invalid("结束日期不能早于开始日期")
	}
	return nil
}

// CreateBudget 新建预算并关联类别，返回时附带已花费金额
func (s *Store) CreateBudget(ctx context.Context, userID uint, in BudgetInput) (*models.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	period, err := normalizePeriod(in.Period)
	if err != nil {
		return nil, err
	}
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}
	start = DayStart(start)
	end := DayStart(in.EndDate)
	if in.EndDate.IsZero() {
		end = PeriodEnd(start, period)
	}

	budget := models.Budget{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount.Round(2),
		Period:    period,
		StartDate: start,
		EndDate:   end,
	}
	if err := validateBudget(&budget); err != nil {
		return nil, err
	}
	if len(uniqueIDs(in.CategoryIDs)) == 0 {
		return nil, invalid("预算至少需要关联一个类别")
	}

	err = s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(&budget).Error; err != nil {
			return err
		}
		return linkCategories(tx, userID, budget.ID, in.CategoryIDs, s.now())
	})
	if err != nil {
		return nil, classify(err, "创建预算")
	}
	return s.GetBudget(ctx, userID, budget.ID)
}

// GetBudget 获取预算及其类别和已花费金额
func (s *Store) GetBudget(ctx context.Context, userID, id uint) (*models.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	budget, err := findBudget(db.Preload("Categories"), userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillSpent(db, userID, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func findBudget(tx *gorm.DB, userID, id uint) (*models.Budget, error) {
	var budget models.Budget
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("预算不存在")
		}
		return nil, classify(err, "查询预算")
	}
	return &budget, nil
}

// ListBudgets 当前用户的全部预算，每个都附带读取时计算的已花费金额
func (s *Store) ListBudgets(ctx context.Context, userID uint) ([]models.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	db := s.conn(ctx)
	var budgets []models.Budget
	if err := db.Preload("Categories").Where("user_id = ?", userID).
		Order("start_date DESC, id DESC").Find(&budgets).Error; err != nil {
		return nil, classify(err, "查询预算")
	}
	for i := range budgets {
		if err := s.fillSpent(db, userID, &budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// UpdateBudget 修改预算；CategoryIDs 非 nil 时重新关联类别
func (s *Store) UpdateBudget(ctx context.Context, userID, id uint, patch BudgetPatch) (*models.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := findBudget(tx, userID, id)
		if err != nil {
			return err
		}

		rederiveEnd := false
		if patch.Name != nil {
			budget.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Amount != nil {
			budget.Amount = patch.Amount.Round(2)
		}
		if patch.Period != nil {
			period, err := normalizePeriod(*patch.Period)
			if err != nil {
				return err
			}
			rederiveEnd = rederiveEnd || period != budget.Period
			budget.Period = period
		}
		if patch.StartDate != nil && !patch.StartDate.IsZero() {
			start := DayStart(*patch.StartDate)
			rederiveEnd = rederiveEnd || !start.Equal(budget.StartDate)
			budget.StartDate = start
		}
		if patch.EndDate != nil && !patch.EndDate.IsZero() {
			budget.EndDate = DayStart(*patch.EndDate)
		} else if rederiveEnd {
			budget.EndDate = PeriodEnd(budget.StartDate, budget.Period)
		}
		if err := validateBudget(budget); err != nil {
			return err
		}

		if err := tx.Model(&models.Budget{}).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]any{
			"name":       budget.Name,
			"amount":     budget.Amount,
			"period":     budget.Period,
			"start_date": budget.StartDate,
			"end_date":   budget.EndDate,
		}).Error; err != nil {
			return err
		}

		if patch.CategoryIDs != nil {
			return relinkCategories(tx, userID, id, patch.CategoryIDs, s.now())
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "更新预算")
	}
	return s.GetBudget(ctx, userID, id)
}

// DeleteBudget 先解除类别关联再删除预算
func (s *Store) DeleteBudget(ctx context.Context, userID, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return classify(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := findBudget(tx, userID, id)
		if err != nil {
			return err
		}
		if err := unlinkAll(tx, userID, budget.ID); err != nil {
			return err
		}
		return tx.Delete(&models.Budget{}, budget.ID).Error
	}), "删除预算")
}
