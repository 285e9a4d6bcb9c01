package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction 收支流水
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Type        string          `json:"type" gorm:"size:10;not null;index"`
	Description string          `json:"description" gorm:"size:255"`
	Date        time.Time       `json:"date" gorm:"not null;index"`
	CategoryID  uint            `json:"category_id" gorm:"index;not null"`
	AccountID   uint            `json:"account_id" gorm:"index;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Account  *Account  `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// BalanceDelta 该流水对账户余额的影响
func (t *Transaction) BalanceDelta() decimal.Decimal {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}
