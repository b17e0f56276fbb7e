package models

import (
	"time"
)

// StockAlert 库存预警表。
// 同一 (规格, 预警类型) 至多一条未解决记录。
type StockAlert struct {
	ID           uint       `gorm:"primarykey" json:"id"`                              // 主键
	VariantID    uint       `gorm:"index;not null" json:"variant_id"`                  // 规格ID
	AlertType    string     `gorm:"type:varchar(20);index;not null" json:"alert_type"` // 预警类型（low_stock/out_of_stock）
	Threshold    int        `gorm:"not null;default:0" json:"threshold"`               // 触发阈值
	CurrentLevel int        `gorm:"not null;default:0" json:"current_level"`           // 触发时库存水位
	IsResolved   bool       `gorm:"not null;default:false;index" json:"is_resolved"`   // 是否已解决
	ResolvedBy   *uint      `json:"resolved_by,omitempty"`                             // 解决人（管理员ID）
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`                             // 解决时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                           // 更新时间
}

// TableName 指定表名
func (StockAlert) TableName() string {
	return "stock_alerts"
}
