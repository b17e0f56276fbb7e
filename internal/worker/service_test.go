package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/provider"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*gorm.DB, *Consumer) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Warehouse{},
		&models.VariantStock{},
		&models.InventoryTransaction{},
		&models.StockAlert{},
		&models.CartItem{},
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

	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	txnRepo := repository.NewPaymentTransactionRepository(db)

	settingService := service.NewSettingService(repository.NewSettingRepository(db), nil)
	couponService := service.NewCouponService(repository.NewCouponRepository(db), repository.NewOrderCouponRepository(db), repository.NewUserRepository(db), nil)
	flashSaleService := service.NewFlashSaleService(repository.NewFlashSaleRepository(db), nil)
	stockService := service.NewStockService(productRepo, repository.NewVariantStockRepository(db), repository.NewInventoryTransactionRepository(db), repository.NewStockAlertRepository(db), repository.NewWarehouseRepository(db), settingService)
	paymentService := service.NewPaymentService(txnRepo, orderRepo, historyRepo, cartRepo, repository.NewAdminRepository(db), stockService, couponService, settingService, nil, config.GatewayConfig{})
	orderService := service.NewOrderService(orderRepo, historyRepo, repository.NewOrderSequenceRepository(db), productRepo, cartRepo, repository.NewUserRepository(db), repository.NewShippingMethodRepository(db), repository.NewPaymentMethodRepository(db), couponService, flashSaleService, stockService, paymentService, settingService, nil, config.OrderConfig{})

	consumer := NewConsumer(&provider.Container{
		OrderRepo:      orderRepo,
		PaymentTxnRepo: txnRepo,
		PaymentService: paymentService,
		OrderService:   orderService,
	})
	return db, consumer
}

// seedPendingOrder 直插一张待支付订单与其 pending 银行转账流水
func seedPendingOrder(t *testing.T, db *gorm.DB, orderNo string, createdAt time.Time) (*models.Order, *models.PaymentTransaction) {
	t.Helper()
	order := models.Order{
		OrderNo:           orderNo,
		UserID:            1,
		Status:            constants.OrderStatusPending,
		PaymentStatus:     constants.OrderPaymentStatusUnpaid,
		Currency:          constants.SiteCurrencyDefault,
		TotalAmount:       models.NewMoneyFromInt(150000),
		PaymentMethodCode: constants.PaymentMethodBankTransfer,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	txn := models.PaymentTransaction{
		TransactionNo: fmt.Sprintf("txn-%s", orderNo),
		OrderID:       order.ID,
		Method:        constants.PaymentMethodBankTransfer,
		Amount:        models.NewMoneyFromInt(150000),
		Currency:      constants.SiteCurrencyDefault,
		Status:        constants.PaymentStatusPending,
		CreatedAt:     createdAt,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	return &order, &txn
}

func TestHandlePaymentExpireMarksTransactionFailed(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	order, txn := seedPendingOrder(t, db, "SN-20260828-00001", time.Now().Add(-time.Hour))

	payload, err := json.Marshal(queue.PaymentExpirePayload{TransactionID: txn.ID, OrderID: order.ID})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	if err := consumer.handlePaymentExpire(context.Background(), asynq.NewTask(queue.TaskPaymentExpire, payload)); err != nil {
		t.Fatalf("handle payment expire failed: %v", err)
	}

	var reloadedTxn models.PaymentTransaction
	if err := db.First(&reloadedTxn, txn.ID).Error; err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	// 超时流水记失败，不是取消
	if reloadedTxn.Status != constants.PaymentStatusFailed {
		t.Fatalf("txn status want failed, got %s", reloadedTxn.Status)
	}
	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusCancelled {
		t.Fatalf("order status want cancelled, got %s", reloadedOrder.Status)
	}

	// 重复投递幂等
	if err := consumer.handlePaymentExpire(context.Background(), asynq.NewTask(queue.TaskPaymentExpire, payload)); err != nil {
		t.Fatalf("duplicate payment expire failed: %v", err)
	}
}

func TestSweepExpiredPaymentsMarksFailed(t *testing.T) {
	db, consumer := setupWorkerTest(t)
	staleOrder, staleTxn := seedPendingOrder(t, db, "SN-20260828-00002", time.Now().Add(-2*time.Hour))
	_, freshTxn := seedPendingOrder(t, db, "SN-20260828-00003", time.Now())

	svc := &Service{name: "worker", consumer: consumer}
	if err := svc.sweepExpiredPayments(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var reloadedStale models.PaymentTransaction
	if err := db.First(&reloadedStale, staleTxn.ID).Error; err != nil {
		t.Fatalf("reload stale txn failed: %v", err)
	}
	if reloadedStale.Status != constants.PaymentStatusFailed {
		t.Fatalf("stale txn status want failed, got %s", reloadedStale.Status)
	}
	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, staleOrder.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusCancelled {
		t.Fatalf("order status want cancelled, got %s", reloadedOrder.Status)
	}

	var reloadedFresh models.PaymentTransaction
	if err := db.First(&reloadedFresh, freshTxn.ID).Error; err != nil {
		t.Fatalf("reload fresh txn failed: %v", err)
	}
	// 未到期的流水不受巡检影响
	if reloadedFresh.Status != constants.PaymentStatusPending {
		t.Fatalf("fresh txn status want pending, got %s", reloadedFresh.Status)
	}
}
