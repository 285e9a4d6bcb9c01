package ledger

import (
	"context"
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionInput 新建流水参数，Date 为零值时取当前时间
type TransactionInput struct {
	Amount      decimal.Decimal
	Type        string
	Description string
	Date        time.Time
	CategoryID  uint
	AccountID   uint
}

// TransactionPatch 修改流水参数，nil 表示不修改
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Type        *string
	Description *string
	Date        *time.Time
	CategoryID  *uint
	AccountID   *uint
}

// TransactionFilter 流水查询条件，区间为 [Start, End)，零值表示不限
type TransactionFilter struct {
	Type       string
	CategoryID uint
	AccountID  uint
	Start      time.Time
	End        time.Time
	Page       Page
}

func validateEntry(amount decimal.Decimal, entryType string) error {
	if !amount.IsPositive() {
		return invalid("金额必须大于 0")
	}
	if !models.ValidEntryType(entryType) {
		return invalid("无效的交易类型: %s", entryType)
	}
	return nil
}

// CreateTransaction 记一笔流水并同步账户余额
func (s *Store) CreateTransaction(ctx context.Context, userID uint, in TransactionInput) (*models.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if err := validateEntry(in.Amount, in.Type); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	in.Date = localTime(in.Date)

	txn := models.Transaction{
		UserID:      userID,
		Amount:      in.Amount.Round(2),
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCategory(tx, userID, txn.CategoryID); err != nil {
			return err
		}
		if _, err := findAccount(tx, userID, txn.AccountID); err != nil {
			return err
		}
		if err := tx.Omit("Category", "Account").Create(&txn).Error; err != nil {
			return err
		}
		return applyTransaction(tx, &txn)
	})
	if err != nil {
		return nil, classify(err, "创建交易")
	}
	return s.GetTransaction(ctx, userID, txn.ID)
}

// GetTransaction 获取单条流水（含类别和账户）
func (s *Store) GetTransaction(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var txn models.Transaction
	err := s.conn(ctx).Preload("Category").Preload("Account").
		Where("id = ? AND user_id = ?", id, userID).First(&txn).Error
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("交易记录不存在")
		}
		return nil, classify(err, "查询交易")
	}
	return &txn, nil
}

func findTransaction(tx *gorm.DB, userID, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("交易记录不存在")
		}
		return nil, err
	}
	return &txn, nil
}

// UpdateTransaction 修改流水：先撤销原记录的余额影响，再按新值记入，三步同属一个存储事务
func (s *Store) UpdateTransaction(ctx context.Context, userID, id uint, patch TransactionPatch) (*models.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := findTransaction(tx, userID, id)
		if err != nil {
			return err
		}

		next := *old
		if patch.Amount != nil {
			next.Amount = patch.Amount.Round(2)
		}
		if patch.Type != nil {
			next.Type = strings.ToUpper(strings.TrimSpace(*patch.Type))
		}
		if patch.Description != nil {
			next.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Date != nil && !patch.Date.IsZero() {
			next.Date = localTime(*patch.Date)
		}
		if patch.CategoryID != nil {
			next.CategoryID = *patch.CategoryID
		}
		if patch.AccountID != nil {
			next.AccountID = *patch.AccountID
		}
		if err := validateEntry(next.Amount, next.Type); err != nil {
			return err
		}
		if next.CategoryID != old.CategoryID {
			if _, err := findCategory(tx, userID, next.CategoryID); err != nil {
				return err
			}
		}
		if next.AccountID != old.AccountID {
			if _, err := findAccount(tx, userID, next.AccountID); err != nil {
				return err
			}
		}

		if err := revertTransaction(tx, old); err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]any{
			"amount":      next.Amount,
			"type":        next.Type,
			"description": next.Description,
			"date":        next.Date,
			"category_id": next.CategoryID,
			"account_id":  next.AccountID,
		}).Error; err != nil {
			return err
		}
		return applyTransaction(tx, &next)
	})
	if err != nil {
		return nil, classify(err, "更新交易")
	}
	return s.GetTransaction(ctx, userID, id)
}

// DeleteTransaction 删除流水并撤销其余额影响
func (s *Store) DeleteTransaction(ctx context.Context, userID, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return classify(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		txn, err := findTransaction(tx, userID, id)
		if err != nil {
			return err
		}
		if err := revertTransaction(tx, txn); err != nil {
			return err
		}
		return tx.Delete(&models.Transaction{}, txn.ID).Error
	}), "删除交易")
}

// ListTransactions 按条件分页查询流水，按日期倒序
func (s *Store) ListTransactions(ctx context.Context, userID uint, f TransactionFilter) ([]models.Transaction, int64, Page, error) {
	page := f.Page.Normalize()
	if err := requireUser(userID); err != nil {
		return nil, 0, page, err
	}

	query := s.conn(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if t := strings.ToUpper(strings.TrimSpace(f.Type)); t != "" {
		if !models.ValidEntryType(t) {
			return nil, 0, page, invalid("无效的交易类型: %s", t)
		}
		query = query.Where("type = ?", t)
	}
	if f.CategoryID != 0 {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.AccountID != 0 {
		query = query.Where("account_id = ?", f.AccountID)
	}
	if !f.Start.IsZero() {
		query = query.Where("date >= ?", localTime(f.Start))
	}
	if !f.End.IsZero() {
		query = query.Where("date < ?", localTime(f.End))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, page, classify(err, "查询交易")
	}

	var list []models.Transaction
	if err := query.Preload("Category").Preload("Account").
		Order("date DESC, id DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&list).Error; err != nil {
		return nil, 0, page, classify(err, "查询交易")
	}
	return list, total, page, nil
}
