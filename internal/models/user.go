package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`                    // 主键
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`       // 邮箱
	Name      string         `gorm:"type:varchar(100)" json:"name"`           // 姓名
	Phone     string         `gorm:"type:varchar(30)" json:"phone"`           // 手机号
	Tier      string         `gorm:"type:varchar(50);index" json:"tier"`      // 会员等级（优惠券定向人群）
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`  // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
