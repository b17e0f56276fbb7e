package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin 管理员账号
type Admin struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                     // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`                     // 用户名
	PasswordHash string         `gorm:"not null" json:"-"`                                        // 密码哈希
	IsSuper      bool           `gorm:"not null;default:false" json:"is_super"`                   // 是否超级管理员
	RefundLimit  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"refund_limit"` // 单笔退款上限（0 表示使用全局默认）
	LastLoginAt  *time.Time     `json:"last_login_at"`                                            // 最后登录时间
	LastLoginIP  string         `gorm:"type:varchar(64)" json:"last_login_ip"`                    // 最后登录 IP
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
