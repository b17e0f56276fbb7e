package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
)

const testChecksumKey = "test-checksum-key"

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		ClientID:    "client",
		APIKey:      "api-key",
		ChecksumKey: testChecksumKey,
	}
}

// signWebhookBody 按网关口径构造带签名的回调报文：
// data 字段按键名字典序拼 k=v&，HMAC-SHA256 后十六进制小写
func signWebhookBody(t *testing.T, data map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal webhook data failed: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal webhook data failed: %v", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := fields[k].(type) {
		case nil:
			value = ""
		case string:
			value = v
		case bool:
			value = strconv.FormatBool(v)
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, value))
	}
	mac := hmac.New(sha256.New, []byte(testChecksumKey))
	mac.Write([]byte(strings.Join(pairs, "&")))
	signature := hex.EncodeToString(mac.Sum(nil))

	body, err := json.Marshal(map[string]interface{}{
		"code":      "00",
		"desc":      "success",
		"success":   true,
		"data":      json.RawMessage(raw),
		"signature": signature,
	})
	if err != nil {
		t.Fatalf("marshal webhook payload failed: %v", err)
	}
	return body
}

// seedGatewayOrder 下一单并把支付流水改造成携带网关订单码的待支付银行转账流水
func (env *testEnv) seedGatewayOrder(t *testing.T, orderCode int64) (*models.Order, *models.PaymentTransaction) {
	t.Helper()
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 200000, 10)

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
	// 货到付款下单即清购物车，回调测试要验证网关路径的清理，补回去
	if err := env.db.Create(&models.CartItem{UserID: user.ID, VariantID: variant.ID, Quantity: 1, PriceAtAdd: variant.Product.BasePrice}).Error; err != nil {
		t.Fatalf("restore cart item failed: %v", err)
	}

	txns, err := env.txnRepo.ListByOrder(order.ID)
	if err != nil || len(txns) != 1 {
		t.Fatalf("expected one transaction, got %d (%v)", len(txns), err)
	}
	if err := env.db.Model(&models.PaymentTransaction{}).Where("id = ?", txns[0].ID).Updates(map[string]interface{}{
		"method":             constants.PaymentMethodBankTransfer,
		"gateway_order_code": strconv.FormatInt(orderCode, 10),
	}).Error; err != nil {
		t.Fatalf("update transaction failed: %v", err)
	}
	txn, err := env.txnRepo.GetByID(txns[0].ID)
	if err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	return order, txn
}

func webhookData(orderCode int64, orderNo, code string) map[string]interface{} {
	return map[string]interface{}{
		"orderCode":           orderCode,
		"amount":              250000,
		"description":         orderNo,
		"reference":           "FT2026082800001",
		"transactionDateTime": "2026-08-28 10:00:00",
		"currency":            "VND",
		"code":                code,
		"desc":                "success",
	}
}

func TestHandleWebhookPaidConfirmsOrder(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, txn := env.seedGatewayOrder(t, 1001)

	body := signWebhookBody(t, webhookData(1001, order.OrderNo, "00"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}

	reloadedTxn, err := env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloadedTxn.Status != constants.PaymentStatusPaid {
		t.Fatalf("txn status want paid, got %s", reloadedTxn.Status)
	}
	if reloadedTxn.PaidAt == nil || reloadedTxn.CallbackAt == nil {
		t.Fatalf("expected paid_at and callback_at set")
	}
	if reloadedTxn.GatewayReference != "FT2026082800001" {
		t.Fatalf("gateway reference want FT2026082800001, got %s", reloadedTxn.GatewayReference)
	}

	reloadedOrder, err := env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed, got %s", reloadedOrder.Status)
	}
	if reloadedOrder.PaymentStatus != constants.OrderPaymentStatusPaid || reloadedOrder.PaidAt == nil {
		t.Fatalf("order payment want paid with paid_at set, got %s", reloadedOrder.PaymentStatus)
	}

	// 网关支付在回调确认时清购物车
	items, err := env.cartRepo.ListByUser(order.UserID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cart cleared, got %d items", len(items))
	}

	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 2 || history[1].ActorType != constants.StatusActorGateway {
		t.Fatalf("expected gateway confirmation history, got %+v", history)
	}
}

func TestHandleWebhookDuplicateDeliveryIdempotent(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, _ := env.seedGatewayOrder(t, 1002)

	body := signWebhookBody(t, webhookData(1002, order.OrderNo, "00"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("duplicate delivery failed: %v", err)
	}

	history, err := env.historyRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	// 副作用只生效一次
	if len(history) != 2 {
		t.Fatalf("history rows want 2, got %d", len(history))
	}
}

func TestHandleWebhookFailedKeepsOrderPending(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, txn := env.seedGatewayOrder(t, 1003)

	body := signWebhookBody(t, webhookData(1003, order.OrderNo, "01"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}

	reloadedTxn, err := env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloadedTxn.Status != constants.PaymentStatusFailed {
		t.Fatalf("txn status want failed, got %s", reloadedTxn.Status)
	}

	// 订单保持待支付，客户可重新发起
	reloadedOrder, err := env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending || reloadedOrder.PaymentStatus != constants.OrderPaymentStatusUnpaid {
		t.Fatalf("order want pending/unpaid, got %s/%s", reloadedOrder.Status, reloadedOrder.PaymentStatus)
	}
}

func TestHandleWebhookPaidAfterCancelFlagsAnomaly(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, txn := env.seedGatewayOrder(t, 1004)

	if _, err := env.orderService.CancelOrder(order.ID, order.UserID, ""); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	body := signWebhookBody(t, webhookData(1004, order.OrderNo, "00"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}

	reloadedTxn, err := env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	// 钱照收进流水，订单不复活，打标走人工
	if reloadedTxn.Status != constants.PaymentStatusPaid {
		t.Fatalf("txn status want paid, got %s", reloadedTxn.Status)
	}
	if flagged, _ := reloadedTxn.Metadata["manual_refund_required"].(bool); !flagged {
		t.Fatalf("expected manual_refund_required flag, got %v", reloadedTxn.Metadata)
	}
	reloadedOrder, err := env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusCancelled {
		t.Fatalf("order must stay cancelled, got %s", reloadedOrder.Status)
	}
}

func TestHandleWebhookConfirmFailureKeepsDeliveryReplayable(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, txn := env.seedGatewayOrder(t, 1006)

	// 订单侧副作用落库失败：整个事务回滚，流水不能停在已支付
	if err := env.db.Migrator().DropTable(&models.OrderStatusHistory{}); err != nil {
		t.Fatalf("drop history table failed: %v", err)
	}
	body := signWebhookBody(t, webhookData(1006, order.OrderNo, "00"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err == nil {
		t.Fatalf("expected webhook handling error")
	}

	reloadedTxn, err := env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloadedTxn.Status != constants.PaymentStatusPending {
		t.Fatalf("txn must roll back to pending, got %s", reloadedTxn.Status)
	}
	reloadedOrder, err := env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("order must stay pending, got %s", reloadedOrder.Status)
	}

	// 故障恢复后网关重试同一投递，确认与清车照常生效
	if err := env.db.AutoMigrate(&models.OrderStatusHistory{}); err != nil {
		t.Fatalf("restore history table failed: %v", err)
	}
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("retry delivery failed: %v", err)
	}
	reloadedTxn, err = env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloadedTxn.Status != constants.PaymentStatusPaid {
		t.Fatalf("txn status want paid after retry, got %s", reloadedTxn.Status)
	}
	reloadedOrder, err = env.orderService.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusConfirmed {
		t.Fatalf("order status want confirmed after retry, got %s", reloadedOrder.Status)
	}
	items, err := env.cartRepo.ListByUser(order.UserID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected cart cleared after retry, got %d items", len(items))
	}
}

func TestHandleWebhookUnknownOrderCodeAcked(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())

	body := signWebhookBody(t, webhookData(4040, "SN-20260828-00001", "00"))
	if err := env.paymentService.HandleWebhook(context.Background(), body); err != nil {
		t.Fatalf("unknown order code must ack, got: %v", err)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())
	order, txn := env.seedGatewayOrder(t, 1005)

	body := signWebhookBody(t, webhookData(1005, order.OrderNo, "00"))
	tampered := []byte(strings.Replace(string(body), `"amount":250000`, `"amount":1`, 1))
	if err := env.paymentService.HandleWebhook(context.Background(), tampered); !errors.Is(err, ErrWebhookSignature) {
		t.Fatalf("expected signature error, got: %v", err)
	}

	reloadedTxn, err := env.txnRepo.GetByID(txn.ID)
	if err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloadedTxn.Status != constants.PaymentStatusPending {
		t.Fatalf("txn must stay pending, got %s", reloadedTxn.Status)
	}
}

func TestHandleWebhookRejectsGarbagePayload(t *testing.T) {
	env := setupServiceTestWithGateway(t, testGatewayConfig())

	for _, body := range [][]byte{
		[]byte("not json"),
		[]byte(`{"code":"00","desc":"x"}`),
	} {
		if err := env.paymentService.HandleWebhook(context.Background(), body); !errors.Is(err, ErrWebhookPayloadInvalid) {
			t.Fatalf("expected payload invalid for %q, got: %v", body, err)
		}
	}
}
