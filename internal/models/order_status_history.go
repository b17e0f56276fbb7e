package models

import (
	"time"
)

// OrderStatusHistory 订单状态流转审计表，只追加，不更新不删除。
type OrderStatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`                          // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`                // 订单ID
	OldStatus *string   `gorm:"type:varchar(30)" json:"old_status"`            // 原状态（首条为 null）
	NewStatus string    `gorm:"type:varchar(30);not null" json:"new_status"`   // 新状态
	ActorType string    `gorm:"type:varchar(20);not null" json:"actor_type"`   // 操作者类型（system/customer/admin/gateway）
	ActorID   uint      `json:"actor_id"`                                      // 操作者ID（系统/网关为 0）
	Comment   string    `gorm:"type:varchar(500)" json:"comment"`              // 备注
	CreatedAt time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
