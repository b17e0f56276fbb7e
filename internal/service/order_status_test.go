package service

import (
	"errors"
	"testing"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		allow bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusRefunded, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusDelivered, constants.OrderStatusReturnRequested, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCompleted, true},
		{constants.OrderStatusReturnRequested, constants.OrderStatusRefunded, true},
		{constants.OrderStatusReturnRequested, constants.OrderStatusCompleted, true},
		{constants.OrderStatusPartialRefunded, constants.OrderStatusRefunded, true},
		{constants.OrderStatusPartialRefunded, constants.OrderStatusCompleted, false},
		{constants.OrderStatusCompleted, constants.OrderStatusRefunded, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusRefunded, constants.OrderStatusCompleted, false},
		{"bogus", constants.OrderStatusPending, false},
	}
	for _, c := range cases {
		if got := TransitionAllowed(c.from, c.to); got != c.allow {
			t.Fatalf("%s -> %s: want %v, got %v", c.from, c.to, c.allow, got)
		}
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	terminal := []string{constants.OrderStatusCompleted, constants.OrderStatusCancelled, constants.OrderStatusRefunded}
	for _, status := range terminal {
		if !IsTerminalOrderStatus(status) {
			t.Fatalf("%s should be terminal", status)
		}
	}
	open := []string{constants.OrderStatusPending, constants.OrderStatusShipped, constants.OrderStatusPartialRefunded, "bogus"}
	for _, status := range open {
		if IsTerminalOrderStatus(status) {
			t.Fatalf("%s should not be terminal", status)
		}
	}
}

func TestCancelOrderRestoresResources(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 10)

	coupon := models.Coupon{
		Code:         "CANCEL10",
		Type:         constants.CouponTypeFixed,
		Value:        models.NewMoneyFromInt(10000),
		UsageLimit:   5,
		PerUserLimit: 1,
		IsActive:     true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	env.addToCart(t, user.ID, variant, 3)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
		CouponCode:       "CANCEL10",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if got := env.variantStock(t, variant.ID); got != 7 {
		t.Fatalf("variant stock after order want 7, got %d", got)
	}

	cancelled, err := env.orderService.CancelOrder(order.ID, user.ID, "不想要了")
	if err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled_at to be set")
	}

	// 补偿与下单严格对称
	if got := env.variantStock(t, variant.ID); got != 10 {
		t.Fatalf("variant stock after cancel want 10, got %d", got)
	}
	if got := env.productSold(t, variant.ProductID); got != 0 {
		t.Fatalf("product sold after cancel want 0, got %d", got)
	}
	var reloaded models.Coupon
	if err := env.db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("coupon used count after cancel want 0, got %d", reloaded.UsedCount)
	}
	var linkCount int64
	env.db.Model(&models.OrderCoupon{}).Where("order_id = ?", order.ID).Count(&linkCount)
	if linkCount != 0 {
		t.Fatalf("expected coupon link removed, got %d rows", linkCount)
	}

	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows want 2, got %d", len(history))
	}

	// 终态禁止再取消
	if _, err := env.orderService.CancelOrder(order.ID, user.ID, ""); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("expected cancel not allowed, got: %v", err)
	}
}

func TestCancelOrderOwnership(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderService.CancelOrder(order.ID, user.ID+1, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for other user, got: %v", err)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderService.UpdateStatus(UpdateStatusInput{
		OrderID:   order.ID,
		NewStatus: constants.OrderStatusShipped,
		ActorType: constants.StatusActorAdmin,
		ActorID:   1,
	}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
}

func TestUpdateStatusExpectedStatusConflict(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderService.UpdateStatus(UpdateStatusInput{
		OrderID:        order.ID,
		NewStatus:      constants.OrderStatusProcessing,
		ActorType:      constants.StatusActorAdmin,
		ActorID:        1,
		ExpectedStatus: constants.OrderStatusConfirmed,
	}); !errors.Is(err, ErrOrderStatusConflict) {
		t.Fatalf("expected status conflict, got: %v", err)
	}
}

func TestUpdateStatusIdempotentSameTarget(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := env.orderService.UpdateStatus(UpdateStatusInput{
		OrderID:   order.ID,
		NewStatus: constants.OrderStatusPending,
		ActorType: constants.StatusActorAdmin,
		ActorID:   1,
	})
	if err != nil {
		t.Fatalf("idempotent update failed: %v", err)
	}
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("status want pending, got %s", got.Status)
	}
	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("idempotent update must not append history, got %d rows", len(history))
	}
}

func TestUpdateStatusFulfillmentFlow(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 5)

	env.addToCart(t, user.ID, variant, 1)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	flow := []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCompleted,
	}
	for _, next := range flow {
		if _, err := env.orderService.UpdateStatus(UpdateStatusInput{
			OrderID:   order.ID,
			NewStatus: next,
			ActorType: constants.StatusActorAdmin,
			ActorID:   1,
		}); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	final, err := env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if final.Status != constants.OrderStatusCompleted {
		t.Fatalf("final status want completed, got %s", final.Status)
	}
	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	// 创建 1 条 + 流转 5 条
	if len(history) != 6 {
		t.Fatalf("history rows want 6, got %d", len(history))
	}
}
