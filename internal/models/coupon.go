package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券表。
// 适用人群用 eligibility_type + eligibility_ref 建模：
// all 为全量；tier 时 ref 为会员等级名；user 时 ref 为用户ID。
type Coupon struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                         // 主键
	Code            string         `gorm:"uniqueIndex;not null" json:"code"`                             // 优惠码
	Type            string         `gorm:"not null" json:"type"`                                         // 类型（fixed/percent）
	Value           Money          `gorm:"type:decimal(20,2);not null" json:"value"`                     // 数值（固定金额或百分比）
	MinAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`      // 使用门槛
	MaxDiscount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount"`    // 最大优惠金额（0 表示不封顶）
	FreeShipping    bool           `gorm:"not null;default:false" json:"free_shipping"`                  // 是否附带免运费
	UsageLimit      int            `gorm:"not null;default:0" json:"usage_limit"`                        // 总使用上限（0 表示不限制）
	UsedCount       int            `gorm:"not null;default:0" json:"used_count"`                         // 已使用次数
	PerUserLimit    int            `gorm:"not null;default:1" json:"per_user_limit"`                     // 每人使用上限
	EligibilityType string         `gorm:"type:varchar(20);not null;default:'all'" json:"eligibility_type"` // 适用人群类型（all/tier/user）
	EligibilityRef  string         `gorm:"type:varchar(100)" json:"eligibility_ref"`                     // 适用人群引用值
	StartsAt        *time.Time     `gorm:"index" json:"starts_at"`                                       // 生效时间
	EndsAt          *time.Time     `gorm:"index" json:"ends_at"`                                         // 失效时间
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`                       // 是否启用
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
