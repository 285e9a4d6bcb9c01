package ledger

import (
	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// applyBalance 在同一存储事务中调整账户余额
func applyBalance(tx *gorm.DB, userID, accountID uint, delta decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("账户不存在")
	}
	return nil
}

// applyTransaction 记入一条流水的余额影响
func applyTransaction(tx *gorm.DB, t *models.Transaction) error {
	return applyBalance(tx, t.UserID, t.AccountID, t.BalanceDelta())
}

// revertTransaction 撤销一条流水的余额影响
func revertTransaction(tx *gorm.DB, t *models.Transaction) error {
	return applyBalance(tx, t.UserID, t.AccountID, t.BalanceDelta().Neg())
}
