package ledger

import (
	"context"

	"fintrack/models"
)

// insightTransactionLimit 分析使用的最近流水条数
const insightTransactionLimit = 50

// InsightData 生成财务分析所需的数据
type InsightData struct {
	Transactions []models.Transaction
	Budgets      []models.Budget
}

// InsightData 最近的流水和当前全部预算（含已花费金额）
func (s *Store) InsightData(ctx context.Context, userID uint) (*InsightData, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	data := &InsightData{}
	if err := s.conn(ctx).Preload("Category").Preload("Account").
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Limit(insightTransactionLimit).
		Find(&data.Transactions).Error; err != nil {
		return nil, classify(err, "查询交易")
	}
	budgets, err := s.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	data.Budgets = budgets
	return data, nil
}

// SaveInsight 保存一次分析结果
func (s *Store) SaveInsight(ctx context.Context, userID uint, insight *models.AIInsight) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	insight.UserID = userID
	return classify(s.conn(ctx).Create(insight).Error, "保存分析结果")
}

// ListInsights 分页查询历史分析结果，最新的在前
func (s *Store) ListInsights(ctx context.Context, userID uint, page Page) ([]models.AIInsight, int64, Page, error) {
	page = page.Normalize()
	if err := requireUser(userID); err != nil {
		return nil, 0, page, err
	}
	query := s.conn(ctx).Model(&models.AIInsight{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, page, classify(err, "查询分析记录")
	}
	var list []models.AIInsight
	if err := query.Order("created_at DESC, id DESC").Offset(page.offset()).Limit(page.PageSize).Find(&list).Error; err != nil {
		return nil, 0, page, classify(err, "查询分析记录")
	}
	return list, total, page, nil
}
