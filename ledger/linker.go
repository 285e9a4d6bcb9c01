package ledger

import (
	"context"
	"time"

	"fintrack/models"

	"gorm.io/gorm"
)

// linkCategories 把类别挂到预算上
// 类别必须属于当前用户、为支出类别，且未被其他未过期预算追踪
func linkCategories(tx *gorm.DB, userID, budgetID uint, ids []uint, now time.Time) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return invalid("预算至少需要关联一个类别")
	}

	var cats []models.Category
	if err := tx.Where("user_id = ? AND id IN ?", userID, ids).Find(&cats).Error; err != nil {
		return err
	}
	if len(cats) != len(ids) {
		return invalid("包含不存在的类别")
	}

	var otherBudgetIDs []uint
	for _, c := range cats {
		if c.Type != models.TypeExpense {
			return invalid("类别 %s 不是支出类别，不能加入预算", c.Name)
		}
		if c.BudgetID != nil && *c.BudgetID != budgetID {
			otherBudgetIDs = append(otherBudgetIDs, *c.BudgetID)
		}
	}

	if len(otherBudgetIDs) > 0 {
		var active []models.Budget
		if err := tx.Where("user_id = ? AND id IN ? AND end_date >= ?", userID, uniqueIDs(otherBudgetIDs), DayStart(now)).
			Find(&active).Error; err != nil {
			return err
		}
		if len(active) > 0 {
			byID := make(map[uint]string, len(active))
			for _, b := range active {
				byID[b.ID] = b.Name
			}
			for _, c := range cats {
				if c.BudgetID == nil {
					continue
				}
				if name, ok := byID[*c.BudgetID]; ok {
					return conflict("类别 %s 已被预算 %s 追踪", c.Name, name)
				}
			}
		}
	}

	return tx.Model(&models.Category{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("budget_id", budgetID).Error
}

// unlinkAll 解除预算与全部类别的关联
func unlinkAll(tx *gorm.DB, userID, budgetID uint) error {
	return tx.Model(&models.Category{}).
		Where("user_id = ? AND budget_id = ?", userID, budgetID).
		Update("budget_id", nil).Error
}

// relinkCategories 编辑预算时先全部解除再重新关联
func relinkCategories(tx *gorm.DB, userID, budgetID uint, ids []uint, now time.Time) error {
	if err := unlinkAll(tx, userID, budgetID); err != nil {
		return err
	}
	return linkCategories(tx, userID, budgetID, ids, now)
}

// AvailableCategories 可加入预算的支出类别：
// 未关联预算、所属预算已过期，或正属于 editingBudgetID 的类别
func (s *Store) AvailableCategories(ctx context.Context, userID, editingBudgetID uint) ([]models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var cats []models.Category
	err := s.conn(ctx).Model(&models.Category{}).
		Select("categories.*").
		Joins("LEFT JOIN budgets ON budgets.id = categories.budget_id").
		Where("categories.user_id = ? AND categories.type = ?", userID, models.TypeExpense).
		Where("(categories.budget_id IS NULL OR budgets.id IS NULL OR budgets.end_date < ? OR categories.budget_id = ?)",
			DayStart(s.now()), editingBudgetID).
		Order("categories.name").
		Find(&cats).Error
	if err != nil {
		return nil, classify(err, "查询可用类别")
	}
	return cats, nil
}
