package repository

import (
	"time"

	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// StockAlertRepository 库存预警数据访问接口
type StockAlertRepository interface {
	Create(alert *models.StockAlert) error
	GetByID(id uint) (*models.StockAlert, error)
	HasUnresolved(variantID uint, alertType string) (bool, error)
	Resolve(id uint, adminID uint) (int64, error)
	List(filter StockAlertListFilter) ([]models.StockAlert, int64, error)
	WithTx(tx *gorm.DB) *GormStockAlertRepository
}

// GormStockAlertRepository GORM 实现
type GormStockAlertRepository struct {
	db *gorm.DB
}

// NewStockAlertRepository 创建库存预警仓库
func NewStockAlertRepository(db *gorm.DB) *GormStockAlertRepository {
	return &GormStockAlertRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockAlertRepository) WithTx(tx *gorm.DB) *GormStockAlertRepository {
	if tx == nil {
		return r
	}
	return &GormStockAlertRepository{db: tx}
}

// Create 创建预警
func (r *GormStockAlertRepository) Create(alert *models.StockAlert) error {
	return r.db.Create(alert).Error
}

// GetByID 按 ID 查询预警
func (r *GormStockAlertRepository) GetByID(id uint) (*models.StockAlert, error) {
	var alert models.StockAlert
	result := r.db.Limit(1).Find(&alert, id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &alert, nil
}

// HasUnresolved 判断 (规格, 类型) 是否已有未解决预警
func (r *GormStockAlertRepository) HasUnresolved(variantID uint, alertType string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.StockAlert{}).
		Where("variant_id = ? AND alert_type = ? AND is_resolved = ?", variantID, alertType, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Resolve 条件解决预警（仅未解决时生效），返回受影响行数
func (r *GormStockAlertRepository) Resolve(id uint, adminID uint) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.StockAlert{}).
		Where("id = ? AND is_resolved = ?", id, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_by": adminID,
			"resolved_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List 查询预警列表
func (r *GormStockAlertRepository) List(filter StockAlertListFilter) ([]models.StockAlert, int64, error) {
	var alerts []models.StockAlert
	query := r.db.Model(&models.StockAlert{})

	if filter.VariantID != 0 {
		query = query.Where("variant_id = ?", filter.VariantID)
	}
	if filter.AlertType != "" {
		query = query.Where("alert_type = ?", filter.AlertType)
	}
	if filter.OnlyUnsolved {
		query = query.Where("is_resolved = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}
