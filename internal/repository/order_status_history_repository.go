package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// OrderStatusHistoryRepository 订单状态审计数据访问接口
type OrderStatusHistoryRepository interface {
	Append(history *models.OrderStatusHistory) error
	ListByOrder(orderID uint) ([]models.OrderStatusHistory, error)
	WithTx(tx *gorm.DB) *GormOrderStatusHistoryRepository
}

// GormOrderStatusHistoryRepository GORM 实现
type GormOrderStatusHistoryRepository struct {
	db *gorm.DB
}

// NewOrderStatusHistoryRepository 创建状态审计仓库
func NewOrderStatusHistoryRepository(db *gorm.DB) *GormOrderStatusHistoryRepository {
	return &GormOrderStatusHistoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderStatusHistoryRepository) WithTx(tx *gorm.DB) *GormOrderStatusHistoryRepository {
	if tx == nil {
		return r
	}
	return &GormOrderStatusHistoryRepository{db: tx}
}

// Append 追加一条状态流转记录
func (r *GormOrderStatusHistoryRepository) Append(history *models.OrderStatusHistory) error {
	return r.db.Create(history).Error
}

// ListByOrder 按订单列出状态流转记录
func (r *GormOrderStatusHistoryRepository) ListByOrder(orderID uint) ([]models.OrderStatusHistory, error) {
	var histories []models.OrderStatusHistory
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}
