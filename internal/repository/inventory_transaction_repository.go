package repository

import (
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// InventoryTransactionRepository 库存流水数据访问接口
type InventoryTransactionRepository interface {
	Append(txn *models.InventoryTransaction) error
	List(filter InventoryTxnListFilter) ([]models.InventoryTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormInventoryTransactionRepository
}

// GormInventoryTransactionRepository GORM 实现
type GormInventoryTransactionRepository struct {
	db *gorm.DB
}

// NewInventoryTransactionRepository 创建库存流水仓库
func NewInventoryTransactionRepository(db *gorm.DB) *GormInventoryTransactionRepository {
	return &GormInventoryTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryTransactionRepository) WithTx(tx *gorm.DB) *GormInventoryTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryTransactionRepository{db: tx}
}

// Append 追加一条库存流水
func (r *GormInventoryTransactionRepository) Append(txn *models.InventoryTransaction) error {
	return r.db.Create(txn).Error
}

// List 查询库存流水列表
func (r *GormInventoryTransactionRepository) List(filter InventoryTxnListFilter) ([]models.InventoryTransaction, int64, error) {
	var txns []models.InventoryTransaction
	query := r.db.Model(&models.InventoryTransaction{})

	if filter.VariantID != 0 {
		query = query.Where("variant_id = ?", filter.VariantID)
	}
	if filter.WarehouseID != 0 {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
