package models

import (
	"time"
)

// CartItem 购物车项。下单或移除即物理删除，
// 硬删保证 (user_id, variant_id) 唯一索引不被历史行占住。
// price_at_add 仅作展示参考，结算价以下单时刻的商品现价为准。
type CartItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                         // 主键
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_user_variant" json:"user_id"`    // 用户ID
	VariantID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_variant" json:"variant_id"` // 规格ID
	Quantity   int       `gorm:"not null" json:"quantity"`                                     // 数量
	PriceAtAdd Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price_at_add"`    // 加购时价格
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                                      // 更新时间

	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"` // 关联规格
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
