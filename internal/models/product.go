package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`                           // 唯一标识
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`                     // 商品名称
	BasePrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`    // 基础售价
	SalePrice *Money         `gorm:"type:decimal(20,2)" json:"sale_price,omitempty"`             // 促销价（优先于基础价）
	SoldCount int            `gorm:"not null;default:0" json:"sold_count"`                       // 累计销量
	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"`               // 是否上架
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 返回当前生效售价（促销价优先）
func (p Product) EffectivePrice() Money {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.BasePrice
}
