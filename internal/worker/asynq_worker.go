package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/provider"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskPaymentExpire, c.handlePaymentExpire)
	mux.HandleFunc(queue.TaskCacheInvalidate, c.handleCacheInvalidate)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	receiverEmail := receiverFromSnapshot(order.UserSnapshot)
	if receiverEmail == "" {
		user, err := c.UserRepo.GetByID(order.UserID)
		if err != nil {
			logger.Warnw("worker_order_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
			return err
		}
		if user != nil {
			receiverEmail = strings.TrimSpace(user.Email)
		}
	}
	if receiverEmail == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_email_service_nil", "order_id", order.ID)
		return nil
	}

	status := strings.TrimSpace(payload.NewStatus)
	if status == "" {
		status = order.Status
	}
	err = c.EmailService.SendOrderStatusEmail(receiverEmail, service.OrderStatusEmailInput{
		OrderNo:   order.OrderNo,
		OldStatus: payload.OldStatus,
		NewStatus: status,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
	})
	if err != nil {
		// 邮件服务未启用或收件人被拒属于可预期失败，不重投
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) || errors.Is(err, service.ErrInvalidEmail) || errors.Is(err, service.ErrEmailRecipientRejected) {
			logger.Debugw("worker_order_status_email_skipped", "order_id", order.ID, "reason", err.Error())
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed", "order_id", order.ID, "error", err)
		return err
	}
	logger.Infow("worker_order_status_email_sent",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", status,
	)
	return nil
}

// handlePaymentExpire 处理支付单超时：流水转失败，仍在待支付的订单自动取消。
// 订单取消走状态机，库存与优惠券补偿在状态机事务内完成。
func (c *Consumer) handlePaymentExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.PaymentExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.TransactionID == 0 {
		return nil
	}

	rows, err := c.PaymentTxnRepo.MarkStatusIf(
		payload.TransactionID,
		[]string{constants.PaymentStatusPending},
		constants.PaymentStatusFailed,
		nil,
	)
	if err != nil {
		logger.Warnw("worker_payment_expire_mark_failed", "transaction_id", payload.TransactionID, "error", err)
		return err
	}
	if rows == 0 {
		// 流水已支付或已终结，超时任务作废
		return nil
	}
	logger.Infow("worker_payment_expired",
		"transaction_id", payload.TransactionID,
		"order_id", payload.OrderID,
	)

	if payload.OrderID == 0 {
		return nil
	}
	_, err = c.OrderService.UpdateStatus(service.UpdateStatusInput{
		OrderID:        payload.OrderID,
		NewStatus:      constants.OrderStatusCancelled,
		ActorType:      constants.StatusActorSystem,
		Comment:        "支付超时自动取消",
		ExpectedStatus: constants.OrderStatusPending,
	})
	if err != nil {
		// 订单已被支付确认或人工处理过，不算失败
		if errors.Is(err, service.ErrOrderStatusConflict) || errors.Is(err, service.ErrOrderStatusInvalid) || errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_payment_expire_order_skip", "order_id", payload.OrderID, "reason", err.Error())
			return nil
		}
		logger.Warnw("worker_payment_expire_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Infow("worker_order_auto_cancelled",
		"order_id", payload.OrderID,
		"transaction_id", payload.TransactionID,
	)
	return nil
}

func (c *Consumer) handleCacheInvalidate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.CacheInvalidatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cache_invalidate_unmarshal_failed", "error", err)
		return err
	}
	if payload.Namespace == "" {
		return nil
	}
	if err := cache.DelNamespace(ctx, payload.Namespace); err != nil {
		logger.Warnw("worker_cache_invalidate_failed", "namespace", payload.Namespace, "error", err)
		return err
	}
	logger.Debugw("worker_cache_invalidated", "namespace", payload.Namespace, "reason", payload.Reason)
	return nil
}

func receiverFromSnapshot(snapshot map[string]interface{}) string {
	if snapshot == nil {
		return ""
	}
	if email, ok := snapshot["email"].(string); ok {
		return strings.TrimSpace(email)
	}
	return ""
}
