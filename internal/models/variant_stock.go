package models

import (
	"time"
)

// VariantStock 规格分仓库存表，一行对应 (规格, 仓库)
// 不变量：quantity >= 0，reserved >= 0，reserved <= quantity
type VariantStock struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	VariantID   uint      `gorm:"not null;uniqueIndex:idx_variant_warehouse" json:"variant_id"`          // 规格ID
	WarehouseID uint      `gorm:"not null;uniqueIndex:idx_variant_warehouse" json:"warehouse_id"`        // 仓库ID
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`                                    // 在库数量
	Reserved    int       `gorm:"not null;default:0" json:"reserved"`                                    // 预留数量
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                               // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (VariantStock) TableName() string {
	return "variant_stocks"
}

// Available 可用数量
func (s VariantStock) Available() int {
	return s.Quantity - s.Reserved
}
