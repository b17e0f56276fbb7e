package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表（库存按规格追踪）
type ProductVariant struct {
	ID            uint           `gorm:"primarykey" json:"id"`                           // 主键
	ProductID     uint           `gorm:"index;not null" json:"product_id"`               // 商品ID
	SKU           string         `gorm:"uniqueIndex;not null" json:"sku"`                // SKU 编码
	Color         string         `gorm:"type:varchar(50)" json:"color"`                  // 颜色
	Size          string         `gorm:"type:varchar(50)" json:"size"`                   // 尺码
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`       // 全仓库存汇总（快捷扣减路径）
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"`   // 是否可售
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}
