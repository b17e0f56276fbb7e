package models

import (
	"time"
)

// InventoryTransaction 库存流水表，只追加，不更新不删除。
// 每次库存变动一行，带符号数量与变动后余额快照。
type InventoryTransaction struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	VariantID    uint      `gorm:"index;not null" json:"variant_id"`              // 规格ID
	WarehouseID  uint      `gorm:"index;not null" json:"warehouse_id"`            // 仓库ID
	Type         string    `gorm:"type:varchar(20);index;not null" json:"type"`   // 流水类型
	Quantity     int       `gorm:"not null" json:"quantity"`                      // 带符号变动数量
	BalanceAfter int       `gorm:"not null" json:"balance_after"`                 // 变动后该仓余额
	Reference    string    `gorm:"type:varchar(100);index" json:"reference"`      // 业务参考号（订单号/调拨号）
	Note         string    `gorm:"type:varchar(500)" json:"note"`                 // 备注
	ActorID      uint      `gorm:"index" json:"actor_id"`                         // 操作者ID（系统操作为 0）
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
