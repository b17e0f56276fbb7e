package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 收货/账单地址
type Address struct {
	ID         uint           `gorm:"primarykey" json:"id"`                    // 主键
	UserID     uint           `gorm:"index;not null" json:"user_id"`           // 用户ID
	FullName   string         `gorm:"type:varchar(100);not null" json:"full_name"` // 收件人
	Phone      string         `gorm:"type:varchar(30)" json:"phone"`           // 联系电话
	Line1      string         `gorm:"type:varchar(255);not null" json:"line1"` // 地址行
	Ward       string         `gorm:"type:varchar(100)" json:"ward"`           // 坊/乡
	District   string         `gorm:"type:varchar(100)" json:"district"`       // 郡/县
	City       string         `gorm:"type:varchar(100)" json:"city"`           // 城市
	PostalCode string         `gorm:"type:varchar(20)" json:"postal_code"`     // 邮编
	IsDefault  bool           `gorm:"not null;default:false" json:"is_default"` // 是否默认地址
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}

// Snapshot 生成订单用地址快照
func (a Address) Snapshot() JSON {
	return JSON{
		"full_name":   a.FullName,
		"phone":       a.Phone,
		"line1":       a.Line1,
		"ward":        a.Ward,
		"district":    a.District,
		"city":        a.City,
		"postal_code": a.PostalCode,
	}
}
