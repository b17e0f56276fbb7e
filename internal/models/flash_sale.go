package models

import (
	"time"

	"gorm.io/gorm"
)

// FlashSale 限时抢购活动表
type FlashSale struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name      string         `gorm:"type:varchar(100);not null" json:"name"` // 活动名称
	StartsAt  time.Time      `gorm:"index;not null" json:"starts_at"`        // 开始时间
	EndsAt    time.Time      `gorm:"index;not null" json:"ends_at"`          // 结束时间
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间

	Products []FlashSaleProduct `gorm:"foreignKey:FlashSaleID" json:"products,omitempty"` // 活动商品
}

// TableName 指定表名
func (FlashSale) TableName() string {
	return "flash_sales"
}

// FlashSaleProduct 限时抢购商品表
type FlashSaleProduct struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                          // 主键
	FlashSaleID uint           `gorm:"not null;uniqueIndex:idx_flash_sale_product" json:"flash_sale_id"` // 活动ID
	ProductID   uint           `gorm:"not null;uniqueIndex:idx_flash_sale_product" json:"product_id"` // 商品ID
	SalePrice   Money          `gorm:"type:decimal(20,2);not null" json:"sale_price"`                 // 活动价
	Quota       int            `gorm:"not null;default:0" json:"quota"`                               // 限购数量（0 表示不限制）
	SoldCount   int            `gorm:"not null;default:0" json:"sold_count"`                          // 活动售出数量
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (FlashSaleProduct) TableName() string {
	return "flash_sale_products"
}
