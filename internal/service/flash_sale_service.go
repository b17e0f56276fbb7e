package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"github.com/shopspring/decimal"
)

const flashSaleCacheTTL = time.Minute

// FlashSaleService 限时抢购服务
type FlashSaleService struct {
	flashSaleRepo repository.FlashSaleRepository
	queueClient   *queue.Client
}

// NewFlashSaleService 创建限时抢购服务
func NewFlashSaleService(flashSaleRepo repository.FlashSaleRepository, queueClient *queue.Client) *FlashSaleService {
	return &FlashSaleService{flashSaleRepo: flashSaleRepo, queueClient: queueClient}
}

// ActivePrice 商品当前生效的活动价信息
type ActivePrice struct {
	FlashSaleProductID uint         `json:"flash_sale_product_id"`
	FlashSaleID        uint         `json:"flash_sale_id"`
	SalePrice          models.Money `json:"sale_price"`
	Quota              int          `json:"quota"`
	SoldCount          int          `json:"sold_count"`
}

// GetActivePrice 查询商品当前活动价，无活动时返回 nil
func (s *FlashSaleService) GetActivePrice(productID uint, now time.Time) (*ActivePrice, error) {
	if s == nil || s.flashSaleRepo == nil || productID == 0 {
		return nil, nil
	}
	cacheKey := fmt.Sprintf("%s:price:%d", constants.CacheNamespaceFlashSale, productID)
	var cached ActivePrice
	if ok, _ := cache.GetJSON(context.Background(), cacheKey, &cached); ok {
		if cached.FlashSaleProductID == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	item, err := s.flashSaleRepo.GetActiveProductPrice(productID, now)
	if err != nil {
		return nil, err
	}
	if item == nil {
		_ = cache.SetJSON(context.Background(), cacheKey, ActivePrice{}, flashSaleCacheTTL)
		return nil, nil
	}
	price := &ActivePrice{
		FlashSaleProductID: item.ID,
		FlashSaleID:        item.FlashSaleID,
		SalePrice:          item.SalePrice,
		Quota:              item.Quota,
		SoldCount:          item.SoldCount,
	}
	_ = cache.SetJSON(context.Background(), cacheKey, price, flashSaleCacheTTL)
	return price, nil
}

// EffectiveUnitPrice 解析商品变体的实际下单单价（活动价优先于促销价）
func (s *FlashSaleService) EffectiveUnitPrice(variant *models.ProductVariant, now time.Time) (models.Money, *ActivePrice, error) {
	if variant == nil || variant.Product == nil {
		return models.Money{}, nil, ErrVariantNotFound
	}
	base := variant.Product.EffectivePrice()
	active, err := s.GetActivePrice(variant.ProductID, now)
	if err != nil {
		return models.Money{}, nil, err
	}
	if active == nil {
		return base, nil, nil
	}
	if active.SalePrice.Decimal.LessThan(base.Decimal) && active.SalePrice.Decimal.GreaterThan(decimal.Zero) {
		return active.SalePrice, active, nil
	}
	return base, nil, nil
}

// CreateFlashSaleInput 创建活动输入
type CreateFlashSaleInput struct {
	Name     string
	StartsAt time.Time
	EndsAt   time.Time
	IsActive bool
	Products []CreateFlashSaleProduct
}

// CreateFlashSaleProduct 活动商品输入
type CreateFlashSaleProduct struct {
	ProductID uint
	SalePrice models.Money
	Quota     int
}

// Create 创建限时抢购活动
func (s *FlashSaleService) Create(input CreateFlashSaleInput) (*models.FlashSale, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || !input.EndsAt.After(input.StartsAt) {
		return nil, ErrFlashSaleInvalid
	}
	sale := &models.FlashSale{
		Name:     name,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
		IsActive: input.IsActive,
	}
	for _, p := range input.Products {
		if p.ProductID == 0 || p.SalePrice.Decimal.LessThanOrEqual(decimal.Zero) || p.Quota < 0 {
			return nil, ErrFlashSaleInvalid
		}
		sale.Products = append(sale.Products, models.FlashSaleProduct{
			ProductID: p.ProductID,
			SalePrice: p.SalePrice,
			Quota:     p.Quota,
		})
	}
	if err := s.flashSaleRepo.Create(sale); err != nil {
		return nil, err
	}
	s.invalidateCache("flash_sale_created")
	return sale, nil
}

// SetActive 启停活动
func (s *FlashSaleService) SetActive(id uint, active bool) (*models.FlashSale, error) {
	sale, err := s.flashSaleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrFlashSaleNotFound
	}
	sale.IsActive = active
	if err := s.flashSaleRepo.Update(sale); err != nil {
		return nil, err
	}
	s.invalidateCache("flash_sale_toggled")
	return sale, nil
}

// List 活动列表
func (s *FlashSaleService) List(page, pageSize int) ([]models.FlashSale, int64, error) {
	return s.flashSaleRepo.List(page, pageSize)
}

func (s *FlashSaleService) invalidateCache(reason string) {
	_ = cache.DelNamespace(context.Background(), constants.CacheNamespaceFlashSale)
	if s.queueClient != nil {
		_ = s.queueClient.EnqueueCacheInvalidate(queue.CacheInvalidatePayload{
			Namespace: constants.CacheNamespaceFlashSale,
			Reason:    reason,
		})
	}
}
