package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/payment/payos"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 支付单超时默认分钟数，可被 shop_config.payment_expire_minutes 覆盖
const defaultPaymentExpireMinutes = 30

// PaymentService 支付服务，负责支付流水生命周期、网关对接与退款
type PaymentService struct {
	txnRepo        repository.PaymentTransactionRepository
	orderRepo      repository.OrderRepository
	historyRepo    repository.OrderStatusHistoryRepository
	cartRepo       repository.CartRepository
	adminRepo      repository.AdminRepository
	stockService   *StockService
	couponService  *CouponService
	settingService *SettingService
	queueClient    *queue.Client
	gatewayCfg     config.GatewayConfig
}

// NewPaymentService 创建支付服务
func NewPaymentService(txnRepo repository.PaymentTransactionRepository, orderRepo repository.OrderRepository, historyRepo repository.OrderStatusHistoryRepository, cartRepo repository.CartRepository, adminRepo repository.AdminRepository, stockService *StockService, couponService *CouponService, settingService *SettingService, queueClient *queue.Client, gatewayCfg config.GatewayConfig) *PaymentService {
	return &PaymentService{
		txnRepo:        txnRepo,
		orderRepo:      orderRepo,
		historyRepo:    historyRepo,
		cartRepo:       cartRepo,
		adminRepo:      adminRepo,
		stockService:   stockService,
		couponService:  couponService,
		settingService: settingService,
		queueClient:    queueClient,
		gatewayCfg:     gatewayCfg,
	}
}

// payosConfig 把网关配置转换为 PayOS 客户端配置
func (s *PaymentService) payosConfig() *payos.Config {
	cfg := &payos.Config{
		ClientID:       s.gatewayCfg.ClientID,
		APIKey:         s.gatewayCfg.APIKey,
		ChecksumKey:    s.gatewayCfg.ChecksumKey,
		Endpoint:       s.gatewayCfg.Endpoint,
		ReturnURL:      s.gatewayCfg.ReturnURL,
		CancelURL:      s.gatewayCfg.CancelURL,
		TimeoutSeconds: s.gatewayCfg.TimeoutSeconds,
	}
	cfg.Normalize()
	return cfg
}

// newGatewayOrderCode 生成网关订单码。
// PayOS 要求数字订单码且全局唯一，用毫秒时间戳拼订单ID尾三位。
func newGatewayOrderCode(orderID uint) int64 {
	return time.Now().UnixMilli()*1000 + int64(orderID%1000)
}

func (s *PaymentService) resolveExpireMinutes() int {
	if s.settingService == nil {
		return defaultPaymentExpireMinutes
	}
	minutes, err := s.settingService.GetPaymentExpireMinutes(defaultPaymentExpireMinutes)
	if err != nil || minutes <= 0 {
		return defaultPaymentExpireMinutes
	}
	return minutes
}

// createTransactionTx 在下单事务内创建支付流水。
// 货到付款只落 pending 流水；网关支付同步调用收银台建单，
// 网关失败返回错误让整个下单事务回滚。
func (s *PaymentService) createTransactionTx(tx *gorm.DB, order *models.Order, user *models.User) (*models.PaymentTransaction, error) {
	txnRepo := s.txnRepo.WithTx(tx)
	txn := &models.PaymentTransaction{
		TransactionNo: uuid.NewString(),
		OrderID:       order.ID,
		Method:        order.PaymentMethodCode,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		Status:        constants.PaymentStatusPending,
	}

	if order.PaymentMethodCode == constants.PaymentMethodCashOnDelivery {
		if err := txnRepo.Create(txn); err != nil {
			return nil, err
		}
		return txn, nil
	}

	if err := s.fillGatewayLink(txn, order, user); err != nil {
		return nil, err
	}
	if err := txnRepo.Create(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// fillGatewayLink 调网关建单并把收银台链接写入流水
func (s *PaymentService) fillGatewayLink(txn *models.PaymentTransaction, order *models.Order, user *models.User) error {
	cfg := s.payosConfig()
	if err := payos.ValidateConfig(cfg); err != nil {
		logger.Errorw("payment_gateway_config_invalid",
			"order_id", order.ID,
			"error", err,
		)
		return ErrPaymentGatewayFailed
	}

	orderCode := newGatewayOrderCode(order.ID)
	expireMinutes := s.resolveExpireMinutes()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := payos.CreatePaymentLink(ctx, cfg, payos.CreateInput{
		OrderCode:   orderCode,
		Amount:      order.TotalAmount.IntPart(),
		Description: order.OrderNo,
		BuyerName:   user.Name,
		BuyerEmail:  user.Email,
		BuyerPhone:  user.Phone,
		ExpiredAt:   time.Now().Add(time.Duration(expireMinutes) * time.Minute),
	})
	if err != nil {
		logger.Errorw("payment_gateway_create_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"gateway_order_code", orderCode,
			"error", err,
		)
		return ErrPaymentGatewayFailed
	}

	txn.GatewayOrderCode = strconv.FormatInt(orderCode, 10)
	txn.CheckoutURL = result.CheckoutURL
	txn.QRCode = result.QRCode
	if txn.Metadata == nil {
		txn.Metadata = models.JSON{}
	}
	if result.PaymentLink != "" {
		txn.Metadata["payment_link_id"] = result.PaymentLink
	}
	return nil
}

// InitiatePayment 对未支付订单重新发起支付。
// 短窗口内同订单同金额已有带链接的 pending 流水时直接复用，
// 避免重复点击生成多条收银台链接。
func (s *PaymentService) InitiatePayment(orderID, userID uint) (*models.PaymentTransaction, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.OrderPaymentStatusUnpaid {
		return nil, ErrPaymentStatusConflict
	}
	if order.PaymentMethodCode != constants.PaymentMethodBankTransfer {
		return nil, ErrPaymentMethodInvalid
	}

	expireMinutes := s.resolveExpireMinutes()
	since := time.Now().Add(-time.Duration(expireMinutes) * time.Minute)
	existing, err := s.txnRepo.GetReusablePending(order.ID, order.PaymentMethodCode, order.TotalAmount, since)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.CheckoutURL != "" {
		return existing, nil
	}

	txn := &models.PaymentTransaction{
		TransactionNo: uuid.NewString(),
		OrderID:       order.ID,
		Method:        order.PaymentMethodCode,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		Status:        constants.PaymentStatusPending,
	}
	if err := s.txnRepo.Create(txn); err != nil {
		return nil, ErrPaymentCreateFailed
	}

	user := &models.User{ID: order.UserID}
	s.userSnapshotInto(order, user)
	if err := s.fillGatewayLink(txn, order, user); err != nil {
		// 网关失败只作废本次流水，订单保持待支付可再次重试
		if _, markErr := s.txnRepo.MarkStatusIf(txn.ID, []string{constants.PaymentStatusPending}, constants.PaymentStatusFailed, nil); markErr != nil {
			logger.Errorw("payment_mark_failed_error",
				"transaction_id", txn.ID,
				"error", markErr,
			)
		}
		return nil, err
	}
	if err := s.txnRepo.Update(txn); err != nil {
		return nil, ErrPaymentCreateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueuePaymentExpire(queue.PaymentExpirePayload{
			TransactionID: txn.ID,
			OrderID:       order.ID,
		}, time.Duration(expireMinutes)*time.Minute); err != nil {
			logger.Warnw("payment_enqueue_expire_failed",
				"transaction_id", txn.ID,
				"error", err,
			)
		}
	}
	return txn, nil
}

// userSnapshotInto 用下单时的用户快照补全联系信息
func (s *PaymentService) userSnapshotInto(order *models.Order, user *models.User) {
	if order.UserSnapshot == nil {
		return
	}
	if v, ok := order.UserSnapshot["name"].(string); ok {
		user.Name = v
	}
	if v, ok := order.UserSnapshot["email"].(string); ok {
		user.Email = v
	}
	if v, ok := order.UserSnapshot["phone"].(string); ok {
		user.Phone = v
	}
}

// GetTransaction 获取支付流水详情
func (s *PaymentService) GetTransaction(id uint) (*models.PaymentTransaction, error) {
	txn, err := s.txnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrPaymentNotFound
	}
	return txn, nil
}

// ListByOrder 获取订单的全部支付流水
func (s *PaymentService) ListByOrder(orderID uint) ([]models.PaymentTransaction, error) {
	return s.txnRepo.ListByOrder(orderID)
}

// ListAdmin 管理端支付流水列表
func (s *PaymentService) ListAdmin(filter repository.PaymentListFilter) ([]models.PaymentTransaction, int64, error) {
	return s.txnRepo.ListAdmin(filter)
}

// ListExpiredPending 列出超时未支付流水，供对账巡检任务拉取
func (s *PaymentService) ListExpiredPending(before time.Time, limit int) ([]models.PaymentTransaction, error) {
	return s.txnRepo.ListExpiredPending(before, limit)
}

// CheckGatewayStatus 主动查询网关支付单状态，用于对账兜底
func (s *PaymentService) CheckGatewayStatus(ctx context.Context, txn *models.PaymentTransaction) (*payos.StatusResult, error) {
	if txn.GatewayOrderCode == "" {
		return nil, ErrPaymentNotFound
	}
	orderCode, err := strconv.ParseInt(txn.GatewayOrderCode, 10, 64)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	cfg := s.payosConfig()
	if err := payos.ValidateConfig(cfg); err != nil {
		return nil, ErrPaymentGatewayFailed
	}
	result, err := payos.CheckPaymentStatus(ctx, cfg, orderCode)
	if err != nil {
		return nil, ErrPaymentGatewayFailed
	}
	return result, nil
}
