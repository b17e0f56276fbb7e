package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// WarehouseRepository 仓库数据访问接口
type WarehouseRepository interface {
	Create(warehouse *models.Warehouse) error
	GetByID(id uint) (*models.Warehouse, error)
	ListActive() ([]models.Warehouse, error)
	WithTx(tx *gorm.DB) *GormWarehouseRepository
}

// GormWarehouseRepository GORM 实现
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository 创建仓库仓库
func NewWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWarehouseRepository) WithTx(tx *gorm.DB) *GormWarehouseRepository {
	if tx == nil {
		return r
	}
	return &GormWarehouseRepository{db: tx}
}

// Create 创建仓库
func (r *GormWarehouseRepository) Create(warehouse *models.Warehouse) error {
	return r.db.Create(warehouse).Error
}

// GetByID 按 ID 查询
func (r *GormWarehouseRepository) GetByID(id uint) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	result := r.db.Limit(1).Find(&warehouse, id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &warehouse, nil
}

// ListActive 查询启用的仓库
func (r *GormWarehouseRepository) ListActive() ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}
