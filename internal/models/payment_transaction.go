package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentTransaction 支付流水表，一行对应一次支付尝试（一个订单可有多次）。
// 状态只前进：pending -> paid/failed/cancelled -> partial_refunded -> refunded，
// 终态成功后不再回退。
type PaymentTransaction struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                   // 主键
	TransactionNo    string         `gorm:"uniqueIndex;not null" json:"transaction_no"`             // 内部流水号（UUID）
	OrderID          uint           `gorm:"index;not null" json:"order_id"`                         // 订单ID
	Method           string         `gorm:"type:varchar(30);index;not null" json:"method"`          // 支付方式（bank_transfer/cod）
	Amount           Money          `gorm:"type:decimal(20,2);not null" json:"amount"`              // 支付金额
	RefundedAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refunded_amount"` // 累计已退金额（并发退款的条件更新键）
	Currency         string         `gorm:"not null" json:"currency"`                               // 币种
	Status           string         `gorm:"index;not null" json:"status"`                           // 支付状态
	GatewayOrderCode string         `gorm:"index" json:"gateway_order_code"`                        // 网关订单码（对账关联键）
	GatewayReference string         `gorm:"index" json:"gateway_reference"`                         // 网关交易参考号
	CheckoutURL      string         `gorm:"type:text" json:"checkout_url"`                          // 收银台链接
	QRCode           string         `gorm:"type:text" json:"qr_code"`                               // 二维码内容
	Metadata         JSON           `gorm:"type:json" json:"metadata"`                              // 元数据（退款历史累积于此）
	CallbackPayload  JSON           `gorm:"type:json" json:"callback_payload"`                      // 最近一次回调原始数据
	PaidAt           *time.Time     `gorm:"index" json:"paid_at"`                                   // 支付时间
	CallbackAt       *time.Time     `gorm:"index" json:"callback_at"`                               // 回调时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
