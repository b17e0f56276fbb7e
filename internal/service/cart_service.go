package service

import (
	"time"

	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"
)

// CartService 购物车服务
type CartService struct {
	cartRepo         repository.CartRepository
	productRepo      repository.ProductRepository
	flashSaleService *FlashSaleService
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, flashSaleService *FlashSaleService) *CartService {
	return &CartService{
		cartRepo:         cartRepo,
		productRepo:      productRepo,
		flashSaleService: flashSaleService,
	}
}

// AddItem 加购。同规格已在车内时叠加数量，加购价只作展示参考。
func (s *CartService) AddItem(userID, variantID uint, quantity int) (*models.CartItem, error) {
	if variantID == 0 || quantity <= 0 {
		return nil, ErrInvalidParam
	}
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || !variant.IsActive {
		return nil, ErrVariantNotFound
	}
	if variant.Product == nil || !variant.Product.IsActive {
		return nil, ErrProductNotAvailable
	}

	existing, err := s.cartRepo.GetByUserAndVariant(userID, variantID)
	if err != nil {
		return nil, err
	}
	total := quantity
	if existing != nil {
		total += existing.Quantity
	}
	if total > variant.StockQuantity {
		return nil, ErrStockInsufficient
	}

	if existing != nil {
		if err := s.cartRepo.UpdateQuantity(existing.ID, total); err != nil {
			return nil, err
		}
		existing.Quantity = total
		return existing, nil
	}

	price, _, err := s.flashSaleService.EffectiveUnitPrice(variant, time.Now())
	if err != nil {
		return nil, err
	}
	item := &models.CartItem{
		UserID:     userID,
		VariantID:  variantID,
		Quantity:   quantity,
		PriceAtAdd: price,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity 调整购物车项数量
func (s *CartService) UpdateQuantity(userID, variantID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidParam
	}
	item, err := s.cartRepo.GetByUserAndVariant(userID, variantID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil {
		return err
	}
	if variant == nil || !variant.IsActive {
		return ErrVariantNotFound
	}
	if quantity > variant.StockQuantity {
		return ErrStockInsufficient
	}
	return s.cartRepo.UpdateQuantity(item.ID, quantity)
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, variantID uint) error {
	item, err := s.cartRepo.GetByUserAndVariant(userID, variantID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	return s.cartRepo.Delete(item.ID, userID)
}

// List 获取用户购物车，带规格与商品信息
func (s *CartService) List(userID uint) ([]models.CartItem, error) {
	return s.cartRepo.ListByUser(userID)
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}
