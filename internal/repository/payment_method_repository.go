package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// PaymentMethodRepository 支付方式数据访问接口
type PaymentMethodRepository interface {
	GetByCode(code string) (*models.PaymentMethod, error)
	ListEnabled() ([]models.PaymentMethod, error)
	WithTx(tx *gorm.DB) *GormPaymentMethodRepository
}

// GormPaymentMethodRepository GORM 实现
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository 创建支付方式仓库
func NewPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentMethodRepository) WithTx(tx *gorm.DB) *GormPaymentMethodRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentMethodRepository{db: tx}
}

// GetByCode 按编码查询
func (r *GormPaymentMethodRepository) GetByCode(code string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	result := r.db.Where("code = ?", code).Limit(1).Find(&method)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &method, nil
}

// ListEnabled 查询启用的支付方式
func (r *GormPaymentMethodRepository) ListEnabled() ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.Where("is_active = ?", true).Order("sort_order asc, id asc").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}
