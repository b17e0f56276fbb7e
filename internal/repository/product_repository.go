package repository

import (
	"errors"

	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品与规格数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetVariantByID(id uint) (*models.ProductVariant, error)
	GetVariantsByIDs(ids []uint) ([]models.ProductVariant, error)
	DecrementVariantStock(variantID uint, quantity int) (bool, error)
	IncrementVariantStock(variantID uint, quantity int) error
	SetVariantStock(variantID uint, quantity int) error
	IncrementSold(productID uint, quantity int) error
	DecrementSold(productID uint, quantity int) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetVariantByID 根据 ID 获取规格（带商品）
func (r *GormProductRepository) GetVariantByID(id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.Preload("Product").First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// GetVariantsByIDs 批量获取规格
func (r *GormProductRepository) GetVariantsByIDs(ids []uint) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}
	var variants []models.ProductVariant
	if err := r.db.Preload("Product").Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// DecrementVariantStock 条件扣减规格总库存。
// 仅当 stock_quantity >= quantity 时生效；false 表示库存已被其他请求拿走。
func (r *GormProductRepository) DecrementVariantStock(variantID uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, nil
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementVariantStock 回补规格总库存（取消/退款补偿路径）
func (r *GormProductRepository) IncrementVariantStock(variantID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// SetVariantStock 覆写规格总库存（台账按仓汇总后的回写）
func (r *GormProductRepository) SetVariantStock(variantID uint, quantity int) error {
	return r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", quantity).Error
}

// IncrementSold 累加商品销量
func (r *GormProductRepository) IncrementSold(productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("sold_count", gorm.Expr("sold_count + ?", quantity)).Error
}

// DecrementSold 回退商品销量（下限为 0）
func (r *GormProductRepository) DecrementSold(productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("sold_count", gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", quantity, quantity)).Error
}
