package ledger

import (
	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// computeSpent 预算已花费金额：当前关联类别下、预算时间窗口内的支出合计
// 结束日期当天全天计入
func computeSpent(db *gorm.DB, userID uint, budget *models.Budget) (decimal.Decimal, error) {
	if len(budget.Categories) == 0 {
		return decimal.Zero, nil
	}
	ids := make([]uint, 0, len(budget.Categories))
	for _, c := range budget.Categories {
		ids = append(ids, c.ID)
	}

	var spent decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND category_id IN ?", userID, models.TypeExpense, ids).
		Where("date >= ? AND date < ?", budget.StartDate, budget.EndExclusive()).
		Row().Scan(&spent)
	if err != nil {
		return decimal.Zero, err
	}
	return spent.Round(2), nil
}

func (s *Store) fillSpent(db *gorm.DB, userID uint, budget *models.Budget) error {
	spent, err := computeSpent(db, userID, budget)
	if err != nil {
		return classify(err, "计算预算支出")
	}
	budget.ApplySpent(spent, s.now())
	return nil
}
