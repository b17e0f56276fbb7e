package models

import (
	"time"
)

// OrderSequence 按自然日递增的订单号计数器，首次使用当天时创建。
type OrderSequence struct {
	Day       string    `gorm:"primarykey;type:varchar(8)" json:"day"` // 日期键（YYYYMMDD）
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`  // 当日已分配的最大序号
	UpdatedAt time.Time `json:"updated_at"`                            // 更新时间
}

// TableName 指定表名
func (OrderSequence) TableName() string {
	return "order_sequences"
}
