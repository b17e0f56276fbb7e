package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 免运费门槛默认值，可被 shop_config.free_shipping_threshold 覆盖
var defaultFreeShippingThreshold = models.NewMoneyFromInt(500000)

// OrderService 订单服务
type OrderService struct {
	orderRepo         repository.OrderRepository
	historyRepo       repository.OrderStatusHistoryRepository
	sequenceRepo      repository.OrderSequenceRepository
	productRepo       repository.ProductRepository
	cartRepo          repository.CartRepository
	userRepo          repository.UserRepository
	shippingRepo      repository.ShippingMethodRepository
	paymentMethodRepo repository.PaymentMethodRepository
	couponService     *CouponService
	flashSaleService  *FlashSaleService
	stockService      *StockService
	paymentService    *PaymentService
	settingService    *SettingService
	queueClient       *queue.Client
	orderCfg          config.OrderConfig
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, historyRepo repository.OrderStatusHistoryRepository, sequenceRepo repository.OrderSequenceRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, userRepo repository.UserRepository, shippingRepo repository.ShippingMethodRepository, paymentMethodRepo repository.PaymentMethodRepository, couponService *CouponService, flashSaleService *FlashSaleService, stockService *StockService, paymentService *PaymentService, settingService *SettingService, queueClient *queue.Client, orderCfg config.OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:         orderRepo,
		historyRepo:       historyRepo,
		sequenceRepo:      sequenceRepo,
		productRepo:       productRepo,
		cartRepo:          cartRepo,
		userRepo:          userRepo,
		shippingRepo:      shippingRepo,
		paymentMethodRepo: paymentMethodRepo,
		couponService:     couponService,
		flashSaleService:  flashSaleService,
		stockService:      stockService,
		paymentService:    paymentService,
		settingService:    settingService,
		queueClient:       queueClient,
		orderCfg:          orderCfg,
	}
}

// CreateOrderInput 创建订单输入。
// 下单的商品行不由客户端提交，以用户当前购物车为准。
type CreateOrderInput struct {
	UserID           uint
	ShippingMethodID uint
	PaymentMethod    string
	AddressID        uint
	BillingAddressID uint
	CouponCode       string
	Note             string
	ClientIP         string
}

// orderLine 结算行：规格与数量
type orderLine struct {
	VariantID uint
	Quantity  int
}

// orderPricing 下单金额计算结果
type orderPricing struct {
	Items              []models.OrderItem
	VariantQuantities  map[uint]int
	ProductQuantities  map[uint]int
	Subtotal           models.Money
	ShippingFee        models.Money
	DiscountAmount     models.Money
	TaxAmount          models.Money
	TotalAmount        models.Money
	FreeShippingReason string
	Coupon             *CouponEvaluation
}

// CreateOrder 按用户当前购物车创建订单。
// 金额计算、库存扣减、优惠券占用、支付单创建在同一事务内完成，
// 任一环节失败整单回滚。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidOrderItem
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrNotFound
	}
	shippingAddr, err := s.userRepo.GetAddress(input.AddressID, input.UserID)
	if err != nil {
		return nil, err
	}
	if shippingAddr == nil {
		return nil, ErrAddressInvalid
	}
	billingAddr := shippingAddr
	if input.BillingAddressID != 0 && input.BillingAddressID != input.AddressID {
		billingAddr, err = s.userRepo.GetAddress(input.BillingAddressID, input.UserID)
		if err != nil {
			return nil, err
		}
		if billingAddr == nil {
			return nil, ErrAddressInvalid
		}
	}
	shippingMethod, err := s.shippingRepo.GetByID(input.ShippingMethodID)
	if err != nil {
		return nil, err
	}
	if shippingMethod == nil || !shippingMethod.IsActive {
		return nil, ErrShippingMethodInvalid
	}
	methodCode := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	paymentMethod, err := s.paymentMethodRepo.GetByCode(methodCode)
	if err != nil {
		return nil, err
	}
	if paymentMethod == nil || !paymentMethod.IsActive {
		return nil, ErrPaymentMethodInvalid
	}

	cartItems, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}
	lines := make([]orderLine, 0, len(cartItems))
	for _, item := range cartItems {
		lines = append(lines, orderLine{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	now := time.Now()
	pricing, err := s.buildPricing(input, lines, user, shippingMethod, now)
	if err != nil {
		return nil, err
	}

	orderNo, err := s.nextOrderNo(now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNo:            orderNo,
		UserID:             user.ID,
		Status:             constants.OrderStatusPending,
		PaymentStatus:      constants.OrderPaymentStatusUnpaid,
		Currency:           constants.SiteCurrencyDefault,
		Subtotal:           pricing.Subtotal,
		ShippingFee:        pricing.ShippingFee,
		DiscountAmount:     pricing.DiscountAmount,
		TaxAmount:          pricing.TaxAmount,
		TotalAmount:        pricing.TotalAmount,
		FreeShippingReason: pricing.FreeShippingReason,
		ShippingMethodID:   shippingMethod.ID,
		PaymentMethodID:    paymentMethod.ID,
		PaymentMethodCode:  paymentMethod.Code,
		UserSnapshot: models.JSON{
			"user_id": user.ID,
			"email":   user.Email,
			"name":    user.Name,
			"phone":   user.Phone,
			"tier":    user.Tier,
		},
		ShippingSnapshot: shippingAddr.Snapshot(),
		BillingSnapshot:  billingAddr.Snapshot(),
		ClientIP:         strings.TrimSpace(input.ClientIP),
		Note:             strings.TrimSpace(input.Note),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if pricing.Coupon != nil {
		order.CouponID = &pricing.Coupon.Coupon.ID
	}

	var paymentTxn *models.PaymentTransaction
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		historyRepo := s.historyRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		if err := orderRepo.Create(order, pricing.Items); err != nil {
			return err
		}

		// 逐行条件扣减，任一行失败整单回滚
		for variantID, quantity := range pricing.VariantQuantities {
			ok, decErr := productRepo.DecrementVariantStock(variantID, quantity)
			if decErr != nil {
				return decErr
			}
			if !ok {
				return ErrStockInsufficient
			}
		}
		for productID, quantity := range pricing.ProductQuantities {
			if err := productRepo.IncrementSold(productID, quantity); err != nil {
				return err
			}
		}

		if pricing.Coupon != nil {
			if err := s.couponService.ApplyUsage(tx, pricing.Coupon.Coupon, order.ID, pricing.Coupon.Discount, pricing.Coupon.FreeShipping); err != nil {
				return err
			}
		}

		if err := historyRepo.Append(&models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: nil,
			NewStatus: constants.OrderStatusPending,
			ActorType: constants.StatusActorCustomer,
			ActorID:   user.ID,
			Comment:   "订单创建",
		}); err != nil {
			return err
		}

		txn, payErr := s.paymentService.createTransactionTx(tx, order, user)
		if payErr != nil {
			return payErr
		}
		paymentTxn = txn

		// 货到付款下单即清购物车；网关支付等回调确认后再清
		if paymentMethod.Code == constants.PaymentMethodCashOnDelivery {
			variantIDs := make([]uint, 0, len(pricing.VariantQuantities))
			for variantID := range pricing.VariantQuantities {
				variantIDs = append(variantIDs, variantID)
			}
			if err := cartRepo.DeleteByUserAndVariants(user.ID, variantIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isKnownOrderError(err) {
			return nil, err
		}
		logger.Errorw("order_create_failed",
			"user_id", user.ID,
			"order_no", orderNo,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}

	s.afterOrderCreated(order, paymentTxn)
	order.Items = pricing.Items
	return order, nil
}

// buildPricing 计算订单金额：现价重读、小计、运费、优惠、税额、总额
func (s *OrderService) buildPricing(input CreateOrderInput, lines []orderLine, user *models.User, shippingMethod *models.ShippingMethod, now time.Time) (*orderPricing, error) {
	merged := make(map[uint]int, len(lines))
	orderedIDs := make([]uint, 0, len(lines))
	for _, line := range lines {
		if line.VariantID == 0 || line.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		if _, ok := merged[line.VariantID]; !ok {
			orderedIDs = append(orderedIDs, line.VariantID)
		}
		merged[line.VariantID] += line.Quantity
	}

	pricing := &orderPricing{
		VariantQuantities: merged,
		ProductQuantities: make(map[uint]int),
	}
	subtotal := decimal.Zero
	for _, variantID := range orderedIDs {
		quantity := merged[variantID]
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
		// 结算价以当前时刻为准，购物车里的加购价只作展示
		unitPrice, _, err := s.flashSaleService.EffectiveUnitPrice(variant, now)
		if err != nil {
			return nil, err
		}
		if unitPrice.Decimal.LessThanOrEqual(decimal.Zero) {
			return nil, ErrProductNotAvailable
		}
		lineSubtotal := unitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
		subtotal = subtotal.Add(lineSubtotal)

		pricing.Items = append(pricing.Items, models.OrderItem{
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			ProductName: variant.Product.Name,
			SKU:         variant.SKU,
			Color:       variant.Color,
			Size:        variant.Size,
			UnitPrice:   unitPrice,
			Quantity:    quantity,
			Subtotal:    models.NewMoneyFromDecimal(lineSubtotal),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		pricing.ProductQuantities[variant.ProductID] += quantity
	}
	pricing.Subtotal = models.NewMoneyFromDecimal(subtotal)

	// 运费：满额免运优先，其次优惠券免运
	shippingFee := shippingMethod.BaseCost
	threshold := defaultFreeShippingThreshold
	if s.settingService != nil {
		if v, err := s.settingService.GetFreeShippingThreshold(defaultFreeShippingThreshold); err == nil {
			threshold = v
		}
	}
	if subtotal.GreaterThanOrEqual(threshold.Decimal) {
		shippingFee = models.NewMoneyFromInt(0)
		pricing.FreeShippingReason = constants.FreeShippingReasonOrderThreshold
	}

	couponCode := strings.TrimSpace(input.CouponCode)
	if couponCode != "" {
		evaluation, err := s.couponService.Evaluate(couponCode, user, pricing.Subtotal, now)
		if err != nil {
			return nil, err
		}
		pricing.Coupon = evaluation
		pricing.DiscountAmount = evaluation.Discount
		if evaluation.FreeShipping && pricing.FreeShippingReason == "" {
			shippingFee = models.NewMoneyFromInt(0)
			pricing.FreeShippingReason = constants.FreeShippingReasonCoupon
		}
	}
	pricing.ShippingFee = shippingFee

	// 税额按商品小计计固定税率, 不受优惠券影响
	tax := subtotal.Mul(decimal.NewFromInt(constants.OrderTaxRatePercent)).Div(decimal.NewFromInt(100)).Round(2)
	pricing.TaxAmount = models.NewMoneyFromDecimal(tax)

	total := subtotal.
		Add(shippingFee.Decimal).
		Add(tax).
		Sub(pricing.DiscountAmount.Decimal).
		Round(2)
	if total.LessThan(decimal.Zero) {
		total = decimal.Zero
	}
	pricing.TotalAmount = models.NewMoneyFromDecimal(total)
	return pricing, nil
}

// nextOrderNo 生成当日递增订单号 PREFIX-YYYYMMDD-NNNNN
func (s *OrderService) nextOrderNo(now time.Time) (string, error) {
	day := now.Format("20060102")
	seq, err := s.sequenceRepo.Next(day)
	if err != nil {
		if errors.Is(err, repository.ErrSequenceContention) {
			return "", ErrOrderNumberExhausted
		}
		return "", err
	}
	prefix := strings.TrimSpace(s.orderCfg.NumberPrefix)
	if prefix == "" {
		prefix = "SN"
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, day, seq), nil
}

// afterOrderCreated 事务成功后的旁路动作：超时任务与通知
func (s *OrderService) afterOrderCreated(order *models.Order, txn *models.PaymentTransaction) {
	if s.queueClient == nil {
		return
	}
	if txn != nil && txn.Status == constants.PaymentStatusPending && order.PaymentMethodCode != constants.PaymentMethodCashOnDelivery {
		expireMinutes := s.resolveExpireMinutes()
		if err := s.queueClient.EnqueuePaymentExpire(queue.PaymentExpirePayload{
			TransactionID: txn.ID,
			OrderID:       order.ID,
		}, time.Duration(expireMinutes)*time.Minute); err != nil {
			logger.Warnw("order_enqueue_payment_expire_failed",
				"order_id", order.ID,
				"transaction_id", txn.ID,
				"error", err,
			)
		}
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID:   order.ID,
		NewStatus: order.Status,
	}); err != nil {
		logger.Warnw("order_enqueue_status_email_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

func (s *OrderService) resolveExpireMinutes() int {
	defaultMinutes := s.orderCfg.PaymentExpireMinutes
	if defaultMinutes <= 0 {
		defaultMinutes = 30
	}
	if s.settingService == nil {
		return defaultMinutes
	}
	minutes, err := s.settingService.GetPaymentExpireMinutes(defaultMinutes)
	if err != nil || minutes <= 0 {
		return defaultMinutes
	}
	return minutes
}

// isKnownOrderError 判断是否为可直接透传的业务错误
func isKnownOrderError(err error) bool {
	known := []error{
		ErrStockInsufficient,
		ErrCouponExhausted,
		ErrCouponUserLimit,
		ErrPaymentGatewayFailed,
		ErrPaymentCreateFailed,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
