package repository

import (
	"errors"
	"time"

	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// FlashSaleRepository 限时抢购数据访问接口
type FlashSaleRepository interface {
	Create(sale *models.FlashSale) error
	Update(sale *models.FlashSale) error
	GetByID(id uint) (*models.FlashSale, error)
	GetActiveProductPrice(productID uint, now time.Time) (*models.FlashSaleProduct, error)
	AddProduct(item *models.FlashSaleProduct) error
	IncrementSold(flashSaleProductID uint, quantity int, quota int) (bool, error)
	List(page, pageSize int) ([]models.FlashSale, int64, error)
	WithTx(tx *gorm.DB) *GormFlashSaleRepository
}

// GormFlashSaleRepository GORM 实现
type GormFlashSaleRepository struct {
	db *gorm.DB
}

// NewFlashSaleRepository 创建限时抢购仓库
func NewFlashSaleRepository(db *gorm.DB) *GormFlashSaleRepository {
	return &GormFlashSaleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFlashSaleRepository) WithTx(tx *gorm.DB) *GormFlashSaleRepository {
	if tx == nil {
		return r
	}
	return &GormFlashSaleRepository{db: tx}
}

// Create 创建活动
func (r *GormFlashSaleRepository) Create(sale *models.FlashSale) error {
	return r.db.Create(sale).Error
}

// Update 更新活动
func (r *GormFlashSaleRepository) Update(sale *models.FlashSale) error {
	return r.db.Save(sale).Error
}

// GetByID 根据 ID 获取活动（带商品）
func (r *GormFlashSaleRepository) GetByID(id uint) (*models.FlashSale, error) {
	var sale models.FlashSale
	if err := r.db.Preload("Products").First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// GetActiveProductPrice 查询商品当前生效的活动价（活动启用且在时间窗内）
func (r *GormFlashSaleRepository) GetActiveProductPrice(productID uint, now time.Time) (*models.FlashSaleProduct, error) {
	var item models.FlashSaleProduct
	result := r.db.
		Joins("JOIN flash_sales ON flash_sales.id = flash_sale_products.flash_sale_id").
		Where("flash_sale_products.product_id = ?", productID).
		Where("flash_sales.is_active = ? AND flash_sales.starts_at <= ? AND flash_sales.ends_at > ?", true, now, now).
		Where("flash_sales.deleted_at IS NULL").
		Order("flash_sale_products.sale_price asc").
		Limit(1).
		Find(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &item, nil
}

// AddProduct 添加活动商品
func (r *GormFlashSaleRepository) AddProduct(item *models.FlashSaleProduct) error {
	return r.db.Create(item).Error
}

// IncrementSold 条件累加活动售出量，quota > 0 时不越过限额
func (r *GormFlashSaleRepository) IncrementSold(flashSaleProductID uint, quantity int, quota int) (bool, error) {
	if quantity <= 0 {
		return false, nil
	}
	query := r.db.Model(&models.FlashSaleProduct{}).Where("id = ?", flashSaleProductID)
	if quota > 0 {
		query = query.Where("sold_count + ? <= ?", quantity, quota)
	}
	result := query.Update("sold_count", gorm.Expr("sold_count + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 查询活动列表
func (r *GormFlashSaleRepository) List(page, pageSize int) ([]models.FlashSale, int64, error) {
	var sales []models.FlashSale
	query := r.db.Model(&models.FlashSale{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)
	if err := query.Preload("Products").Order("id desc").Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}
