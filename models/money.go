package models

import "github.com/shopspring/decimal"

func init() {
	// 金额在 JSON 中输出为数字而不是字符串
	decimal.MarshalJSONWithoutQuotes = true
}

// 交易类型，类别类型共用
const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// ValidEntryType 是否为合法的收支类型
func ValidEntryType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}
