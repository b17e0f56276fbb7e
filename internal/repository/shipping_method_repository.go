package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// ShippingMethodRepository 配送方式数据访问接口
type ShippingMethodRepository interface {
	GetByID(id uint) (*models.ShippingMethod, error)
	ListEnabled() ([]models.ShippingMethod, error)
	WithTx(tx *gorm.DB) *GormShippingMethodRepository
}

// GormShippingMethodRepository GORM 实现
type GormShippingMethodRepository struct {
	db *gorm.DB
}

// NewShippingMethodRepository 创建配送方式仓库
func NewShippingMethodRepository(db *gorm.DB) *GormShippingMethodRepository {
	return &GormShippingMethodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShippingMethodRepository) WithTx(tx *gorm.DB) *GormShippingMethodRepository {
	if tx == nil {
		return r
	}
	return &GormShippingMethodRepository{db: tx}
}

// GetByID 按 ID 查询
func (r *GormShippingMethodRepository) GetByID(id uint) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	result := r.db.Limit(1).Find(&method, id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &method, nil
}

// ListEnabled 查询启用的配送方式
func (r *GormShippingMethodRepository) ListEnabled() ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	if err := r.db.Where("is_active = ?", true).Order("sort_order asc, id asc").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}
