package models

import (
	"time"
)

// OrderCoupon 订单-优惠券关联表，记录实际授予的优惠金额快照。
// 优惠券之后被编辑不影响已成交订单的记录。
type OrderCoupon struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID        uint      `gorm:"uniqueIndex;not null" json:"order_id"`                          // 订单ID
	CouponID       uint      `gorm:"index;not null" json:"coupon_id"`                               // 优惠券ID
	Code           string    `gorm:"type:varchar(100);not null" json:"code"`                        // 优惠码快照
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 实际授予优惠金额
	FreeShipping   bool      `gorm:"not null;default:false" json:"free_shipping"`                   // 是否授予免运费
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
}

// TableName 指定表名
func (OrderCoupon) TableName() string {
	return "order_coupons"
}
