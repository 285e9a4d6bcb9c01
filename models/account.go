package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 账户类型
const (
	AccountChecking   = "CHECKING"
	AccountSavings    = "SAVINGS"
	AccountCreditCard = "CREDIT_CARD"
	AccountInvestment = "INVESTMENT"
)

// AccountTypes 所有账户类型
func AccountTypes() []string {
	return []string{AccountChecking, AccountSavings, AccountCreditCard, AccountInvestment}
}

// ValidAccountType 是否为合法的账户类型
func ValidAccountType(t string) bool {
	for _, v := range AccountTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Account 银行账户
// Balance 始终等于 InitialBalance 加上全部收入减去全部支出
type Account struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	Type           string          `json:"type" gorm:"size:20;not null;default:CHECKING"`
	InitialBalance decimal.Decimal `json:"initial_balance" gorm:"type:decimal(14,2);not null;default:0"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (Account) TableName() string {
	return "bank_accounts"
}

// AfterFind 余额按分取整，消除部分数据库浮点累加的误差
func (a *Account) AfterFind(tx *gorm.DB) error {
	a.Balance = a.Balance.Round(2)
	a.InitialBalance = a.InitialBalance.Round(2)
	return nil
}
