package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/payment/payos"
	"github.com/shopnext/internal/queue"

	"gorm.io/gorm"
)

// 回调去重锁时长。网关重试风暴在锁窗口内折叠为一次生效，
// 锁失效后重复投递由支付状态条件更新兜底。
const webhookDedupTTL = 2 * time.Minute

// HandleWebhook 处理网关支付回调。
// 先验签，再按 (网关订单码, 状态码) 去重，重复投递一律应答成功；
// 成功码翻转流水为已支付并确认订单，失败码翻转流水为失败，订单保持待支付。
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte) error {
	payload, data, err := payos.ParseWebhook(body)
	if err != nil {
		return ErrWebhookPayloadInvalid
	}
	cfg := s.payosConfig()
	if err := payos.VerifyWebhookSignature(cfg, payload); err != nil {
		logger.Warnw("payment_webhook_signature_invalid",
			"gateway_order_code", data.OrderCode,
			"error", err,
		)
		return ErrWebhookSignature
	}

	lockKey := fmt.Sprintf("webhook:payos:%d:%s", data.OrderCode, data.Code)
	acquired, err := cache.AcquireLock(ctx, lockKey, webhookDedupTTL)
	if err != nil {
		logger.Warnw("payment_webhook_lock_error",
			"gateway_order_code", data.OrderCode,
			"error", err,
		)
		acquired = true
	}
	if !acquired {
		logger.Infow("payment_webhook_duplicate_collapsed",
			"gateway_order_code", data.OrderCode,
			"gateway_code", data.Code,
		)
		return nil
	}

	// 处理失败必须归还去重锁，否则锁窗口内的网关重试会被当作重复投递吞掉
	if err := s.applyWebhook(data, body); err != nil {
		if relErr := cache.ReleaseLock(ctx, lockKey); relErr != nil {
			logger.Warnw("payment_webhook_unlock_failed",
				"gateway_order_code", data.OrderCode,
				"error", relErr,
			)
		}
		return err
	}
	return nil
}

func (s *PaymentService) applyWebhook(data *payos.WebhookData, body []byte) error {
	txn, err := s.txnRepo.GetLatestByGatewayOrderCode(strconv.FormatInt(data.OrderCode, 10))
	if err != nil {
		return err
	}
	if txn == nil {
		// 未知订单码照常应答，避免触发网关重试风暴
		logger.Warnw("payment_webhook_unknown_order_code",
			"gateway_order_code", data.OrderCode,
		)
		return nil
	}

	callbackPayload := models.JSON{}
	if err := json.Unmarshal(body, &callbackPayload); err != nil {
		callbackPayload = models.JSON{"raw": string(body)}
	}
	now := time.Now()
	updates := map[string]interface{}{
		"callback_at":       now,
		"gateway_reference": data.Reference,
		"callback_payload":  callbackPayload,
	}

	if data.Code == payos.CodeSuccess {
		return s.applyWebhookPaid(txn, data, updates, now)
	}
	return s.applyWebhookFailed(txn, data, updates)
}

// applyWebhookPaid 应用支付成功回调：流水转已支付，订单转已确认并清购物车。
// 流水翻转与订单侧副作用在同一事务里提交，
// 订单侧失败时流水回滚回 pending，网关重试可以完整重放。
func (s *PaymentService) applyWebhookPaid(txn *models.PaymentTransaction, data *payos.WebhookData, updates map[string]interface{}, now time.Time) error {
	updates["paid_at"] = now

	var confirmed bool
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		rows, err := s.txnRepo.WithTx(tx).MarkStatusIf(txn.ID, []string{constants.PaymentStatusPending}, constants.PaymentStatusPaid, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			current, err := s.txnRepo.WithTx(tx).GetByID(txn.ID)
			if err != nil {
				return err
			}
			if current != nil && current.Status == constants.PaymentStatusPaid {
				// 重复投递，副作用已生效过一次
				return nil
			}
			logger.Warnw("payment_webhook_paid_on_non_pending",
				"transaction_id", txn.ID,
				"status", currentStatus(current),
				"gateway_order_code", data.OrderCode,
			)
			return nil
		}

		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(txn.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			logger.Warnw("payment_webhook_order_missing",
				"transaction_id", txn.ID,
				"order_id", txn.OrderID,
			)
			return nil
		}

		rows, err = orderRepo.UpdateStatusFrom(order.ID, []string{constants.OrderStatusPending}, constants.OrderStatusConfirmed, map[string]interface{}{
			"payment_status": constants.OrderPaymentStatusPaid,
			"paid_at":        now,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			if order.Status == constants.OrderStatusCancelled {
				return s.flagPaymentForCancelledOrder(tx, txn, order)
			}
			// 订单已被并发确认，流水侧已幂等，无须重复副作用
			return nil
		}

		oldStatus := constants.OrderStatusPending
		if err := s.historyRepo.WithTx(tx).Append(&models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: &oldStatus,
			NewStatus: constants.OrderStatusConfirmed,
			ActorType: constants.StatusActorGateway,
			Comment:   "网关回调确认支付",
		}); err != nil {
			return err
		}

		// 网关支付在回调确认后才清购物车（货到付款下单即清）
		variantIDs := make([]uint, 0, len(order.Items))
		for _, item := range order.Items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		if len(variantIDs) > 0 {
			if err := s.cartRepo.WithTx(tx).DeleteByUserAndVariants(order.UserID, variantIDs); err != nil {
				return err
			}
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return err
	}

	if confirmed {
		logger.Infow("payment_webhook_paid",
			"transaction_id", txn.ID,
			"order_id", txn.OrderID,
			"gateway_order_code", data.OrderCode,
			"gateway_reference", data.Reference,
		)
		s.notifyOrderStatus(txn.OrderID, constants.OrderStatusPending, constants.OrderStatusConfirmed)
	}
	return nil
}

// flagPaymentForCancelledOrder 收到已取消订单的付款：不自动退款也不复活订单，
// 打标等待人工处理。
func (s *PaymentService) flagPaymentForCancelledOrder(tx *gorm.DB, txn *models.PaymentTransaction, order *models.Order) error {
	logger.Warnw("payment_received_for_cancelled_order",
		"transaction_id", txn.ID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"amount", txn.Amount.String(),
	)
	current, err := s.txnRepo.WithTx(tx).GetByID(txn.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if current.Metadata == nil {
		current.Metadata = models.JSON{}
	}
	current.Metadata["manual_refund_required"] = true
	current.Metadata["anomaly"] = "paid_after_order_cancelled"
	return s.txnRepo.WithTx(tx).Update(current)
}

// applyWebhookFailed 应用支付失败/取消回调：流水转失败，订单保持待支付可重新发起
func (s *PaymentService) applyWebhookFailed(txn *models.PaymentTransaction, data *payos.WebhookData, updates map[string]interface{}) error {
	rows, err := s.txnRepo.MarkStatusIf(txn.ID, []string{constants.PaymentStatusPending}, constants.PaymentStatusFailed, updates)
	if err != nil {
		return err
	}
	if rows == 0 {
		// 流水已离开 pending，重复或迟到的失败回调直接应答
		return nil
	}
	logger.Infow("payment_webhook_failed",
		"transaction_id", txn.ID,
		"order_id", txn.OrderID,
		"gateway_order_code", data.OrderCode,
		"gateway_code", data.Code,
		"gateway_desc", data.Desc,
	)
	return nil
}

func (s *PaymentService) notifyOrderStatus(orderID uint, oldStatus, newStatus string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}); err != nil {
		logger.Warnw("payment_enqueue_status_email_failed",
			"order_id", orderID,
			"status", newStatus,
			"error", err,
		)
	}
}

func currentStatus(txn *models.PaymentTransaction) string {
	if txn == nil {
		return ""
	}
	return txn.Status
}
