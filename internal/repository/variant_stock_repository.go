package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// VariantStockRepository 分仓库存数据访问接口
type VariantStockRepository interface {
	GetOrCreate(variantID, warehouseID uint) (*models.VariantStock, error)
	Get(variantID, warehouseID uint) (*models.VariantStock, error)
	ListByVariant(variantID uint) ([]models.VariantStock, error)
	ApplyDelta(variantID, warehouseID uint, delta int) (bool, error)
	Reserve(variantID, warehouseID uint, quantity int) (bool, error)
	Release(variantID, warehouseID uint, quantity int) error
	SumQuantity(variantID uint) (int, error)
	WithTx(tx *gorm.DB) *GormVariantStockRepository
}

// GormVariantStockRepository GORM 实现
type GormVariantStockRepository struct {
	db *gorm.DB
}

// NewVariantStockRepository 创建分仓库存仓库
func NewVariantStockRepository(db *gorm.DB) *GormVariantStockRepository {
	return &GormVariantStockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantStockRepository) WithTx(tx *gorm.DB) *GormVariantStockRepository {
	if tx == nil {
		return r
	}
	return &GormVariantStockRepository{db: tx}
}

// GetOrCreate 获取库存行，首次引用时懒创建零库存行
func (r *GormVariantStockRepository) GetOrCreate(variantID, warehouseID uint) (*models.VariantStock, error) {
	stock, err := r.Get(variantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if stock != nil {
		return stock, nil
	}
	created := models.VariantStock{VariantID: variantID, WarehouseID: warehouseID}
	if err := r.db.Create(&created).Error; err != nil {
		// 并发创建冲突时改走读取
		existing, getErr := r.Get(variantID, warehouseID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return &created, nil
}

// Get 获取库存行
func (r *GormVariantStockRepository) Get(variantID, warehouseID uint) (*models.VariantStock, error) {
	var stock models.VariantStock
	result := r.db.Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).Limit(1).Find(&stock)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &stock, nil
}

// ListByVariant 列出规格在各仓的库存
func (r *GormVariantStockRepository) ListByVariant(variantID uint) ([]models.VariantStock, error) {
	var stocks []models.VariantStock
	if err := r.db.Where("variant_id = ?", variantID).Order("warehouse_id asc").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// ApplyDelta 对仓库行施加带符号增量。
// 负增量仅当余额足够时生效（quantity + delta >= 0），false 表示余额不足。
func (r *GormVariantStockRepository) ApplyDelta(variantID, warehouseID uint, delta int) (bool, error) {
	if delta == 0 {
		return true, nil
	}
	query := r.db.Model(&models.VariantStock{}).
		Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID)
	if delta < 0 {
		query = query.Where("quantity >= ?", -delta)
	}
	result := query.Update("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reserve 预留库存，仅当可用量（quantity - reserved）足够时生效
func (r *GormVariantStockRepository) Reserve(variantID, warehouseID uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, nil
	}
	result := r.db.Model(&models.VariantStock{}).
		Where("variant_id = ? AND warehouse_id = ? AND quantity - reserved >= ?", variantID, warehouseID, quantity).
		Update("reserved", gorm.Expr("reserved + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release 释放预留，下限为 0 以容忍重试导致的超量释放
func (r *GormVariantStockRepository) Release(variantID, warehouseID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.VariantStock{}).
		Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
		Update("reserved", gorm.Expr("CASE WHEN reserved >= ? THEN reserved - ? ELSE 0 END", quantity, quantity)).Error
}

// SumQuantity 汇总规格的全仓在库数量
func (r *GormVariantStockRepository) SumQuantity(variantID uint) (int, error) {
	var total int64
	if err := r.db.Model(&models.VariantStock{}).
		Where("variant_id = ?", variantID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}
