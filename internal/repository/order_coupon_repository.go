package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// OrderCouponRepository 订单优惠券关联数据访问接口
type OrderCouponRepository interface {
	Create(oc *models.OrderCoupon) error
	GetByOrder(orderID uint) (*models.OrderCoupon, error)
	CountByCouponAndUser(couponID, userID uint) (int64, error)
	DeleteByOrder(orderID uint) error
	WithTx(tx *gorm.DB) *GormOrderCouponRepository
}

// GormOrderCouponRepository GORM 实现
type GormOrderCouponRepository struct {
	db *gorm.DB
}

// NewOrderCouponRepository 创建订单优惠券仓库
func NewOrderCouponRepository(db *gorm.DB) *GormOrderCouponRepository {
	return &GormOrderCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderCouponRepository) WithTx(tx *gorm.DB) *GormOrderCouponRepository {
	if tx == nil {
		return r
	}
	return &GormOrderCouponRepository{db: tx}
}

// Create 创建关联记录
func (r *GormOrderCouponRepository) Create(oc *models.OrderCoupon) error {
	return r.db.Create(oc).Error
}

// GetByOrder 获取订单的优惠券使用记录
func (r *GormOrderCouponRepository) GetByOrder(orderID uint) (*models.OrderCoupon, error) {
	var oc models.OrderCoupon
	result := r.db.Where("order_id = ?", orderID).Limit(1).Find(&oc)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &oc, nil
}

// CountByCouponAndUser 统计用户对某券的使用次数（关联订单表）
func (r *GormOrderCouponRepository) CountByCouponAndUser(couponID, userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.OrderCoupon{}).
		Joins("JOIN orders ON orders.id = order_coupons.order_id").
		Where("order_coupons.coupon_id = ? AND orders.user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByOrder 删除订单的优惠券使用记录（取消/退款补偿路径）
func (r *GormOrderCouponRepository) DeleteByOrder(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.OrderCoupon{}).Error
}
