package models

import (
	"time"

	"gorm.io/gorm"
)

// ShippingMethod 配送方式表
type ShippingMethod struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                   // 主键
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`                       // 编码
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`                 // 名称
	BaseCost  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_cost"` // 基础运费
	SortOrder int            `gorm:"not null;default:0" json:"sort_order"`                   // 排序权重
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`                 // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (ShippingMethod) TableName() string {
	return "shipping_methods"
}
