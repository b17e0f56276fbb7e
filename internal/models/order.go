package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表。
// 金额五项在创建事务内一次性快照，后续不再改写；
// 不变量：total_amount == subtotal + shipping_fee + tax_amount - discount_amount，且不为负。
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                            // 主键
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`                            // 订单编号（PREFIX-YYYYMMDD-NNNNN）
	UserID             uint           `gorm:"index;not null" json:"user_id"`                                   // 用户ID
	Status             string         `gorm:"index;not null" json:"status"`                                    // 订单状态
	PaymentStatus      string         `gorm:"index;not null" json:"payment_status"`                            // 支付状态
	Currency           string         `gorm:"not null" json:"currency"`                                        // 币种
	Subtotal           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`           // 商品小计
	ShippingFee        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"`       // 运费
	DiscountAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 优惠金额
	TaxAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`         // 税额
	TotalAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 实付金额
	FreeShippingReason string         `gorm:"type:varchar(30)" json:"free_shipping_reason,omitempty"`          // 免运费原因（order_threshold/coupon）
	ShippingMethodID   uint           `gorm:"index;not null" json:"shipping_method_id"`                        // 配送方式ID
	PaymentMethodID    uint           `gorm:"index;not null" json:"payment_method_id"`                         // 支付方式ID
	PaymentMethodCode  string         `gorm:"type:varchar(30);not null" json:"payment_method_code"`            // 支付方式编码快照
	CouponID           *uint          `gorm:"index" json:"coupon_id,omitempty"`                                // 优惠券ID
	UserSnapshot       JSON           `gorm:"type:json" json:"user_snapshot"`                                  // 用户信息快照
	ShippingSnapshot   JSON           `gorm:"type:json" json:"shipping_snapshot"`                              // 收货地址快照
	BillingSnapshot    JSON           `gorm:"type:json" json:"billing_snapshot"`                               // 账单地址快照
	ClientIP           string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                     // 下单客户端IP
	Note               string         `gorm:"type:varchar(500)" json:"note,omitempty"`                         // 订单备注
	PaidAt             *time.Time     `gorm:"index" json:"paid_at"`                                            // 支付时间
	CancelledAt        *time.Time     `gorm:"index" json:"cancelled_at"`                                       // 取消时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
