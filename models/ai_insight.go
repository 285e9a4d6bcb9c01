package models

import "time"

// AIInsight 财务分析结果记录
type AIInsight struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Model     string    `json:"model" gorm:"size:100"`
	Fallback  bool      `json:"fallback" gorm:"default:false"`
	Score     int       `json:"score"`
	Result    string    `json:"result" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (AIInsight) TableName() string {
	return "ai_insights"
}
