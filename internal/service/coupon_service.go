package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo      repository.CouponRepository
	orderCouponRepo repository.OrderCouponRepository
	userRepo        repository.UserRepository
	queueClient     *queue.Client
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, orderCouponRepo repository.OrderCouponRepository, userRepo repository.UserRepository, queueClient *queue.Client) *CouponService {
	return &CouponService{
		couponRepo:      couponRepo,
		orderCouponRepo: orderCouponRepo,
		userRepo:        userRepo,
		queueClient:     queueClient,
	}
}

// CouponEvaluation 优惠券评估结果
type CouponEvaluation struct {
	Coupon       *models.Coupon
	Discount     models.Money
	FreeShipping bool
}

// Evaluate 评估优惠券对订单的适用性与折扣金额。
// 只读校验，不占用使用次数；占用在下单事务内通过 ApplyUsage 完成。
func (s *CouponService) Evaluate(code string, user *models.User, subtotal models.Money, now time.Time) (*CouponEvaluation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, ErrCouponExpired
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, ErrCouponExhausted
	}
	if err := s.checkEligibility(coupon, user); err != nil {
		return nil, err
	}
	if user != nil && coupon.PerUserLimit > 0 {
		used, err := s.orderCouponRepo.CountByCouponAndUser(coupon.ID, user.ID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.PerUserLimit) {
			return nil, ErrCouponUserLimit
		}
	}
	if coupon.MinAmount.IsPositive() && subtotal.Decimal.LessThan(coupon.MinAmount.Decimal) {
		return nil, ErrCouponMinAmount
	}

	discount := s.calculateDiscount(coupon, subtotal)
	return &CouponEvaluation{
		Coupon:       coupon,
		Discount:     discount,
		FreeShipping: coupon.FreeShipping,
	}, nil
}

// checkEligibility 校验适用人群（all / tier / user）
func (s *CouponService) checkEligibility(coupon *models.Coupon, user *models.User) error {
	switch strings.ToLower(strings.TrimSpace(coupon.EligibilityType)) {
	case "", constants.CouponEligibilityAll:
		return nil
	case constants.CouponEligibilityTier:
		if user == nil || !strings.EqualFold(strings.TrimSpace(user.Tier), strings.TrimSpace(coupon.EligibilityRef)) {
			return ErrCouponNotEligible
		}
		return nil
	case constants.CouponEligibilityUser:
		if user == nil {
			return ErrCouponNotEligible
		}
		refID, err := strconv.ParseUint(strings.TrimSpace(coupon.EligibilityRef), 10, 64)
		if err != nil || uint(refID) != user.ID {
			return ErrCouponNotEligible
		}
		return nil
	default:
		return ErrCouponNotEligible
	}
}

// calculateDiscount 计算折扣金额（percent 类型受 max_discount 封顶，且不超过小计）
func (s *CouponService) calculateDiscount(coupon *models.Coupon, subtotal models.Money) models.Money {
	var discount decimal.Decimal
	switch coupon.Type {
	case constants.CouponTypePercent:
		discount = subtotal.Decimal.
			Mul(coupon.Value.Decimal).
			Div(decimal.NewFromInt(100)).
			Round(2)
		if coupon.MaxDiscount.IsPositive() && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
	default:
		discount = coupon.Value.Decimal.Round(2)
	}
	if discount.GreaterThan(subtotal.Decimal) {
		discount = subtotal.Decimal
	}
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discount)
}

// ApplyUsage 在事务内占用优惠券使用次数并落订单关联记录
func (s *CouponService) ApplyUsage(tx *gorm.DB, coupon *models.Coupon, orderID uint, discount models.Money, freeShipping bool) error {
	couponRepo := s.couponRepo.WithTx(tx)
	orderCouponRepo := s.orderCouponRepo.WithTx(tx)

	ok, err := couponRepo.IncrementUsedCount(coupon.ID, coupon.UsageLimit)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponExhausted
	}
	return orderCouponRepo.Create(&models.OrderCoupon{
		OrderID:        orderID,
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		DiscountAmount: discount,
		FreeShipping:   freeShipping,
	})
}

// ReleaseUsage 在事务内回滚优惠券占用（订单取消或退款补偿）
func (s *CouponService) ReleaseUsage(tx *gorm.DB, orderID uint) error {
	orderCouponRepo := s.orderCouponRepo.WithTx(tx)
	couponRepo := s.couponRepo.WithTx(tx)

	usage, err := orderCouponRepo.GetByOrder(orderID)
	if err != nil {
		return err
	}
	if usage == nil {
		return nil
	}
	if err := orderCouponRepo.DeleteByOrder(orderID); err != nil {
		return err
	}
	return couponRepo.DecrementUsedCount(usage.CouponID)
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code            string
	Type            string
	Value           models.Money
	MinAmount       models.Money
	MaxDiscount     models.Money
	FreeShipping    bool
	UsageLimit      int
	PerUserLimit    int
	EligibilityType string
	EligibilityRef  string
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        bool
}

// Create 创建优惠券
func (s *CouponService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrCouponCreateInvalid
	}
	couponType := strings.ToLower(strings.TrimSpace(input.Type))
	if couponType != constants.CouponTypeFixed && couponType != constants.CouponTypePercent {
		return nil, ErrCouponCreateInvalid
	}
	if !input.Value.IsPositive() {
		return nil, ErrCouponCreateInvalid
	}
	if couponType == constants.CouponTypePercent && input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrCouponCreateInvalid
	}
	eligibility := strings.ToLower(strings.TrimSpace(input.EligibilityType))
	switch eligibility {
	case "":
		eligibility = constants.CouponEligibilityAll
	case constants.CouponEligibilityAll:
	case constants.CouponEligibilityTier, constants.CouponEligibilityUser:
		if strings.TrimSpace(input.EligibilityRef) == "" {
			return nil, ErrCouponCreateInvalid
		}
	default:
		return nil, ErrCouponCreateInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
		return nil, ErrCouponCreateInvalid
	}

	perUserLimit := input.PerUserLimit
	if perUserLimit <= 0 {
		perUserLimit = 1
	}
	coupon := &models.Coupon{
		Code:            code,
		Type:            couponType,
		Value:           input.Value,
		MinAmount:       input.MinAmount,
		MaxDiscount:     input.MaxDiscount,
		FreeShipping:    input.FreeShipping,
		UsageLimit:      input.UsageLimit,
		PerUserLimit:    perUserLimit,
		EligibilityType: eligibility,
		EligibilityRef:  strings.TrimSpace(input.EligibilityRef),
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		IsActive:        input.IsActive,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	s.invalidateCache("coupon_created")
	return coupon, nil
}

// SetActive 启停优惠券
func (s *CouponService) SetActive(id uint, active bool) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	coupon.IsActive = active
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, err
	}
	s.invalidateCache("coupon_toggled")
	return coupon, nil
}

// List 优惠券列表
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

func (s *CouponService) invalidateCache(reason string) {
	_ = cache.DelNamespace(context.Background(), constants.CacheNamespaceCoupon)
	if s.queueClient != nil {
		_ = s.queueClient.EnqueueCacheInvalidate(queue.CacheInvalidatePayload{
			Namespace: constants.CacheNamespaceCoupon,
			Reason:    reason,
		})
	}
}
