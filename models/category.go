package models

import "time"

// 类别默认值
const (
	DefaultCategoryIcon  = "📝"
	DefaultCategoryColor = "#3B82F6"
)

// Category 收支类别，同一用户下名称唯一
// BudgetID 非空表示该类别被某个预算追踪
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_category_user_name;not null"`
	Name      string    `json:"name" gorm:"uniqueIndex:idx_category_user_name;size:50;not null"`
	Type      string    `json:"type" gorm:"size:10;not null;default:EXPENSE"`
	Icon      string    `json:"icon" gorm:"size:20"`
	Color     string    `json:"color" gorm:"size:20"`
	BudgetID  *uint     `json:"budget_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
