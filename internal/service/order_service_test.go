package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	orderRepo        repository.OrderRepository
	historyRepo      repository.OrderStatusHistoryRepository
	productRepo      repository.ProductRepository
	cartRepo         repository.CartRepository
	txnRepo          repository.PaymentTransactionRepository
	couponRepo       repository.CouponRepository
	orderCouponRepo  repository.OrderCouponRepository
	variantStockRepo repository.VariantStockRepository
	inventoryRepo    repository.InventoryTransactionRepository
	alertRepo        repository.StockAlertRepository

	orderService   *OrderService
	paymentService *PaymentService
	stockService   *StockService
	couponService  *CouponService
}

func setupServiceTest(t *testing.T) *testEnv {
	return setupServiceTestWithGateway(t, config.GatewayConfig{})
}

func setupServiceTestWithGateway(t *testing.T, gatewayCfg config.GatewayConfig) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Warehouse{},
		&models.VariantStock{},
		&models.InventoryTransaction{},
		&models.StockAlert{},
		&models.CartItem{},
		&models.ShippingMethod{},
		&models.PaymentMethod{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.OrderSequence{},
		&models.PaymentTransaction{},
		&models.Coupon{},
		&models.OrderCoupon{},
		&models.FlashSale{},
		&models.FlashSaleProduct{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	prevDB := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prevDB })

	env := &testEnv{
		db:               db,
		orderRepo:        repository.NewOrderRepository(db),
		historyRepo:      repository.NewOrderStatusHistoryRepository(db),
		productRepo:      repository.NewProductRepository(db),
		cartRepo:         repository.NewCartRepository(db),
		txnRepo:          repository.NewPaymentTransactionRepository(db),
		couponRepo:       repository.NewCouponRepository(db),
		orderCouponRepo:  repository.NewOrderCouponRepository(db),
		variantStockRepo: repository.NewVariantStockRepository(db),
		inventoryRepo:    repository.NewInventoryTransactionRepository(db),
		alertRepo:        repository.NewStockAlertRepository(db),
	}

	settingService := NewSettingService(repository.NewSettingRepository(db), nil)
	env.couponService = NewCouponService(env.couponRepo, env.orderCouponRepo, repository.NewUserRepository(db), nil)
	flashSaleService := NewFlashSaleService(repository.NewFlashSaleRepository(db), nil)
	env.stockService = NewStockService(env.productRepo, env.variantStockRepo, env.inventoryRepo, env.alertRepo, repository.NewWarehouseRepository(db), settingService)
	env.paymentService = NewPaymentService(env.txnRepo, env.orderRepo, env.historyRepo, env.cartRepo, repository.NewAdminRepository(db), env.stockService, env.couponService, settingService, nil, gatewayCfg)
	env.orderService = NewOrderService(env.orderRepo, env.historyRepo, repository.NewOrderSequenceRepository(db), env.productRepo, env.cartRepo, repository.NewUserRepository(db), repository.NewShippingMethodRepository(db), repository.NewPaymentMethodRepository(db), env.couponService, flashSaleService, env.stockService, env.paymentService, settingService, nil, config.OrderConfig{})
	return env
}

// seedCheckoutBasics 建用户、地址、配送方式与两种支付方式，返回用户与地址ID
func (env *testEnv) seedCheckoutBasics(t *testing.T) (*models.User, uint) {
	t.Helper()
	user := models.User{Email: fmt.Sprintf("user_%d@test.dev", time.Now().UnixNano()), Name: "测试用户", Phone: "0900000001", IsActive: true}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	addr := models.Address{UserID: user.ID, FullName: "测试用户", Phone: "0900000001", Line1: "1 Nguyen Hue", City: "HCMC"}
	if err := env.db.Create(&addr).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	shipping := models.ShippingMethod{Code: "standard", Name: "标准快递", BaseCost: models.NewMoneyFromInt(30000), IsActive: true}
	if err := env.db.Create(&shipping).Error; err != nil {
		t.Fatalf("create shipping method failed: %v", err)
	}
	for _, code := range []string{constants.PaymentMethodCashOnDelivery, constants.PaymentMethodBankTransfer} {
		pm := models.PaymentMethod{Code: code, Name: code, IsActive: true}
		if err := env.db.Create(&pm).Error; err != nil {
			t.Fatalf("create payment method failed: %v", err)
		}
	}
	return &user, addr.ID
}

// seedVariant 建商品和规格并设置汇总库存
func (env *testEnv) seedVariant(t *testing.T, price int64, stock int) *models.ProductVariant {
	t.Helper()
	nano := time.Now().UnixNano()
	product := models.Product{
		Slug:      fmt.Sprintf("p-%d", nano),
		Name:      "测试商品",
		BasePrice: models.NewMoneyFromInt(price),
		IsActive:  true,
	}
	if err := env.db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := models.ProductVariant{
		ProductID:     product.ID,
		SKU:           fmt.Sprintf("SKU-%d", nano),
		Color:         "黑色",
		Size:          "M",
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := env.db.Create(&variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	variant.Product = &product
	return &variant
}

// addToCart 给用户加购规格，加购价记商品现价
func (env *testEnv) addToCart(t *testing.T, userID uint, variant *models.ProductVariant, quantity int) {
	t.Helper()
	item := models.CartItem{UserID: userID, VariantID: variant.ID, Quantity: quantity, PriceAtAdd: variant.Product.BasePrice}
	if err := env.db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
}

func (env *testEnv) variantStock(t *testing.T, variantID uint) int {
	t.Helper()
	var variant models.ProductVariant
	if err := env.db.First(&variant, variantID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	return variant.StockQuantity
}

func (env *testEnv) productSold(t *testing.T, productID uint) int {
	t.Helper()
	var product models.Product
	if err := env.db.First(&product, productID).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.SoldCount
}

func TestCreateOrderComputesAmounts(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 150000, 10)
	env.addToCart(t, user.ID, variant, 2)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	// 订单行来自购物车快照
	if len(order.Items) != 1 || order.Items[0].VariantID != variant.ID || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if !order.Subtotal.Decimal.Equal(decimal.NewFromInt(300000)) {
		t.Fatalf("subtotal want 300000, got %s", order.Subtotal.String())
	}
	if !order.ShippingFee.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("shipping fee want 30000, got %s", order.ShippingFee.String())
	}
	if !order.TaxAmount.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("tax want 30000, got %s", order.TaxAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(360000)) {
		t.Fatalf("total want 360000, got %s", order.TotalAmount.String())
	}
	if !strings.HasPrefix(order.OrderNo, "SN-") {
		t.Fatalf("unexpected order no: %s", order.OrderNo)
	}

	if got := env.variantStock(t, variant.ID); got != 8 {
		t.Fatalf("variant stock want 8, got %d", got)
	}
	if got := env.productSold(t, variant.ProductID); got != 2 {
		t.Fatalf("product sold want 2, got %d", got)
	}

	txns, err := env.txnRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 1 || txns[0].Status != constants.PaymentStatusPending {
		t.Fatalf("expected one pending payment transaction, got %+v", txns)
	}

	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 || history[0].NewStatus != constants.OrderStatusPending || history[0].OldStatus != nil {
		t.Fatalf("unexpected creation history: %+v", history)
	}
}

func TestCreateOrderFreeShippingAtThreshold(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 250000, 10)
	env.addToCart(t, user.ID, variant, 2)

	// 小计恰好到达门槛也应免运费
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.ShippingFee.Decimal.Equal(decimal.Zero) {
		t.Fatalf("shipping fee want 0, got %s", order.ShippingFee.String())
	}
	if order.FreeShippingReason != constants.FreeShippingReasonOrderThreshold {
		t.Fatalf("free shipping reason want order_threshold, got %s", order.FreeShippingReason)
	}
}

func TestCreateOrderCouponFreeShipping(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 10)

	coupon := models.Coupon{
		Code:         "FREESHIP",
		Type:         constants.CouponTypeFixed,
		Value:        models.NewMoneyFromInt(0),
		FreeShipping: true,
		PerUserLimit: 1,
		IsActive:     true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
		CouponCode:       "FREESHIP",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.ShippingFee.Decimal.Equal(decimal.Zero) {
		t.Fatalf("shipping fee want 0, got %s", order.ShippingFee.String())
	}
	if order.FreeShippingReason != constants.FreeShippingReasonCoupon {
		t.Fatalf("free shipping reason want coupon, got %s", order.FreeShippingReason)
	}
	// 100000 + 0 + 10000 - 0
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(110000)) {
		t.Fatalf("total want 110000, got %s", order.TotalAmount.String())
	}
}

func TestCreateOrderTaxOnRawSubtotal(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 300000, 10)

	coupon := models.Coupon{
		Code:         "PCT10",
		Type:         constants.CouponTypePercent,
		Value:        models.NewMoneyFromInt(10),
		PerUserLimit: 1,
		IsActive:     true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
		CouponCode:       "PCT10",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !order.DiscountAmount.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("discount want 30000, got %s", order.DiscountAmount.String())
	}
	// 税额按折前小计计：300000 * 10% = 30000，不随折扣缩水
	if !order.TaxAmount.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("tax want 30000, got %s", order.TaxAmount.String())
	}
	// 300000 + 30000 + 30000 - 30000
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(330000)) {
		t.Fatalf("total want 330000, got %s", order.TotalAmount.String())
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variantA := env.seedVariant(t, 100000, 10)
	variantB := env.seedVariant(t, 100000, 1)

	coupon := models.Coupon{
		Code:         "ROLLBACK",
		Type:         constants.CouponTypeFixed,
		Value:        models.NewMoneyFromInt(10000),
		UsageLimit:   5,
		PerUserLimit: 1,
		IsActive:     true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	env.addToCart(t, user.ID, variantA, 1)
	env.addToCart(t, user.ID, variantB, 2)
	_, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
		CouponCode:       "ROLLBACK",
	})
	if !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected stock insufficient, got: %v", err)
	}

	// 全部或全无：已扣的一行也要回滚
	if got := env.variantStock(t, variantA.ID); got != 10 {
		t.Fatalf("variant A stock want 10, got %d", got)
	}
	if got := env.variantStock(t, variantB.ID); got != 1 {
		t.Fatalf("variant B stock want 1, got %d", got)
	}

	var orderCount, txnCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	env.db.Model(&models.PaymentTransaction{}).Count(&txnCount)
	if orderCount != 0 || txnCount != 0 {
		t.Fatalf("expected no order rows, got orders=%d txns=%d", orderCount, txnCount)
	}

	var reloaded models.Coupon
	if err := env.db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("coupon used count want 0, got %d", reloaded.UsedCount)
	}

	cartItems, err := env.cartRepo.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(cartItems) != 2 {
		t.Fatalf("cart should survive rollback, got %+v", cartItems)
	}
}

func TestCreateOrderLastUnitGuard(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 1)

	input := CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	}
	env.addToCart(t, user.ID, variant, 1)
	if _, err := env.orderService.CreateOrder(input); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	// 最后一件被占用后，条件扣减拒绝第二单
	env.addToCart(t, user.ID, variant, 1)
	if _, err := env.orderService.CreateOrder(input); !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected stock insufficient for second order, got: %v", err)
	}
	if got := env.variantStock(t, variant.ID); got != 0 {
		t.Fatalf("variant stock want 0, got %d", got)
	}
}

func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	env := setupServiceTest(t)
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db failed: %v", err)
	}
	// 内存库写事务走单连接，两个下单事务串行提交，胜负由条件扣减裁决
	sqlDB.SetMaxOpenConns(1)

	userA, addrA := env.seedCheckoutBasics(t)
	userB := models.User{Email: fmt.Sprintf("user_b_%d@test.dev", time.Now().UnixNano()), Name: "测试用户B", Phone: "0900000002", IsActive: true}
	if err := env.db.Create(&userB).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	addrRowB := models.Address{UserID: userB.ID, FullName: "测试用户B", Phone: "0900000002", Line1: "2 Nguyen Hue", City: "HCMC"}
	if err := env.db.Create(&addrRowB).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}

	variant := env.seedVariant(t, 100000, 1)
	env.addToCart(t, userA.ID, variant, 1)
	env.addToCart(t, userB.ID, variant, 1)

	type attempt struct {
		userID uint
		addrID uint
	}
	attempts := []attempt{{userA.ID, addrA}, {userB.ID, addrRowB.ID}}
	results := make(chan error, len(attempts))
	var wg sync.WaitGroup
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			_, err := env.orderService.CreateOrder(CreateOrderInput{
				UserID:           a.userID,
				ShippingMethodID: 1,
				PaymentMethod:    constants.PaymentMethodCashOnDelivery,
				AddressID:        a.addrID,
			})
			results <- err
		}(a)
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrStockInsufficient):
			rejected++
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("want exactly one winner, got succeeded=%d rejected=%d", succeeded, rejected)
	}
	if got := env.variantStock(t, variant.ID); got != 0 {
		t.Fatalf("variant stock want 0, got %d", got)
	}
}

func TestCreateOrderCODClearsCart(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 10)
	other := env.seedVariant(t, 50000, 10)
	env.addToCart(t, user.ID, variant, 1)
	env.addToCart(t, user.ID, other, 1)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected both cart lines ordered, got %+v", order.Items)
	}

	items, err := env.cartRepo.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	// 货到付款下单即清空已购行
	if len(items) != 0 {
		t.Fatalf("expected empty cart after cod checkout, got %+v", items)
	}
}

func TestCreateOrderGatewayFailureRollsBack(t *testing.T) {
	// 网关配置为空时银行转账下单必须整体回滚
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)
	env.addToCart(t, user.ID, variant, 1)

	_, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodBankTransfer,
		AddressID:        addrID,
	})
	if !errors.Is(err, ErrPaymentGatewayFailed) {
		t.Fatalf("expected gateway failure, got: %v", err)
	}
	if got := env.variantStock(t, variant.ID); got != 5 {
		t.Fatalf("variant stock want 5, got %d", got)
	}
	var orderCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("expected no order rows, got %d", orderCount)
	}
}

func TestCreateOrderInvalidInputs(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 10)

	cases := []struct {
		name  string
		cart  []models.CartItem
		input CreateOrderInput
		want  error
	}{
		{
			name:  "empty cart",
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 1, PaymentMethod: "cod", AddressID: addrID},
			want:  ErrCartEmpty,
		},
		{
			name:  "zero quantity cart line",
			cart:  []models.CartItem{{UserID: user.ID, VariantID: variant.ID, Quantity: 0}},
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 1, PaymentMethod: "cod", AddressID: addrID},
			want:  ErrInvalidOrderItem,
		},
		{
			name:  "unknown address",
			cart:  []models.CartItem{{UserID: user.ID, VariantID: variant.ID, Quantity: 1}},
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 1, PaymentMethod: "cod", AddressID: 9999},
			want:  ErrAddressInvalid,
		},
		{
			name:  "unknown shipping method",
			cart:  []models.CartItem{{UserID: user.ID, VariantID: variant.ID, Quantity: 1}},
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 9999, PaymentMethod: "cod", AddressID: addrID},
			want:  ErrShippingMethodInvalid,
		},
		{
			name:  "unknown payment method",
			cart:  []models.CartItem{{UserID: user.ID, VariantID: variant.ID, Quantity: 1}},
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 1, PaymentMethod: "crypto", AddressID: addrID},
			want:  ErrPaymentMethodInvalid,
		},
		{
			name:  "cart line on unknown variant",
			cart:  []models.CartItem{{UserID: user.ID, VariantID: 9999, Quantity: 1}},
			input: CreateOrderInput{UserID: user.ID, ShippingMethodID: 1, PaymentMethod: "cod", AddressID: addrID},
			want:  ErrVariantNotFound,
		},
	}
	for _, item := range cases {
		if err := env.cartRepo.ClearByUser(user.ID); err != nil {
			t.Fatalf("%s: clear cart failed: %v", item.name, err)
		}
		for i := range item.cart {
			if err := env.db.Create(&item.cart[i]).Error; err != nil {
				t.Fatalf("%s: create cart item failed: %v", item.name, err)
			}
		}
		if _, err := env.orderService.CreateOrder(item.input); !errors.Is(err, item.want) {
			t.Fatalf("%s: want %v, got %v", item.name, item.want, err)
		}
	}
}

func TestNextOrderNoSequencePerDay(t *testing.T) {
	env := setupServiceTest(t)
	now := time.Now()
	first, err := env.orderService.nextOrderNo(now)
	if err != nil {
		t.Fatalf("next order no failed: %v", err)
	}
	second, err := env.orderService.nextOrderNo(now)
	if err != nil {
		t.Fatalf("next order no failed: %v", err)
	}
	day := now.Format("20060102")
	if first != fmt.Sprintf("SN-%s-00001", day) || second != fmt.Sprintf("SN-%s-00002", day) {
		t.Fatalf("unexpected order numbers: %s, %s", first, second)
	}
}
