package service

import (
	"time"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 非超级管理员单笔退款默认上限，可被 shop_config.refund_admin_ceiling 覆盖
var defaultRefundAdminCeiling = models.NewMoneyFromInt(5000000)

// RefundInput 退款请求
type RefundInput struct {
	TransactionID uint         // 支付流水ID
	Amount        models.Money // 本次退款金额
	AdminID       uint         // 操作管理员ID
	Reason        string       // 退款原因
}

// Refund 对已支付流水执行（部分）退款。
// 退款记录累积在流水 metadata 的 refunds 列表里，
// 累计退满原金额时流水与订单转 refunded，否则转 partial_refunded。
func (s *PaymentService) Refund(input RefundInput) (*models.PaymentTransaction, error) {
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, ErrRefundAmountInvalid
	}

	txn, err := s.txnRepo.GetByID(input.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrPaymentNotFound
	}
	if txn.Status != constants.PaymentStatusPaid && txn.Status != constants.PaymentStatusPartialRefunded {
		return nil, ErrPaymentNotRefundable
	}

	if err := s.checkRefundCeiling(input.AdminID, input.Amount); err != nil {
		return nil, err
	}

	refunded := txn.RefundedAmount.Decimal
	newTotal := refunded.Add(input.Amount.Decimal)
	if newTotal.GreaterThan(txn.Amount.Decimal) {
		return nil, ErrRefundExceedsRemaining
	}
	full := newTotal.Equal(txn.Amount.Decimal)

	txnTarget := constants.PaymentStatusPartialRefunded
	orderTarget := constants.OrderStatusPartialRefunded
	if full {
		txnTarget = constants.PaymentStatusRefunded
		orderTarget = constants.OrderStatusRefunded
	}

	now := time.Now()
	metadata := appendRefundEntry(txn.Metadata, input, newTotal, now)

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// 累计已退金额作乐观锁：并发退款里基于过期读的那笔会匹配 0 行，
		// 额度守卫不会被两笔同时通过的读后写绕开
		rows, err := s.txnRepo.WithTx(tx).MarkRefundIf(
			txn.ID,
			[]string{constants.PaymentStatusPaid, constants.PaymentStatusPartialRefunded},
			txnTarget,
			txn.RefundedAmount,
			models.NewMoneyFromDecimal(newTotal),
			map[string]interface{}{"metadata": metadata},
		)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPaymentStatusConflict
		}
		return s.flipOrderRefunded(tx, txn.OrderID, orderTarget, input, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment_refund_applied",
		"transaction_id", txn.ID,
		"order_id", txn.OrderID,
		"amount", input.Amount.String(),
		"refund_total", newTotal.String(),
		"full", full,
		"admin_id", input.AdminID,
	)
	s.notifyOrderStatus(txn.OrderID, "", orderTarget)
	return s.txnRepo.GetByID(txn.ID)
}

// checkRefundCeiling 非超级管理员受单笔退款上限约束。
// 管理员自身上限为 0 时退回全局默认上限。
func (s *PaymentService) checkRefundCeiling(adminID uint, amount models.Money) error {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrPermissionDenied
	}
	if admin.IsSuper {
		return nil
	}
	ceiling := admin.RefundLimit
	if !ceiling.GreaterThan(decimal.Zero) {
		ceiling = defaultRefundAdminCeiling
		if s.settingService != nil {
			if v, err := s.settingService.GetRefundAdminCeiling(defaultRefundAdminCeiling); err == nil {
				ceiling = v
			}
		}
	}
	if amount.GreaterThan(ceiling.Decimal) {
		return ErrRefundExceedsLimit
	}
	return nil
}

// flipOrderRefunded 把订单流转到（部分）退款态并在全额退款时执行补偿
func (s *PaymentService) flipOrderRefunded(tx *gorm.DB, orderID uint, target string, input RefundInput, now time.Time) error {
	orderRepo := s.orderRepo.WithTx(tx)
	order, err := orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	fromStatuses := []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusReturnRequested,
	}
	if target == constants.OrderStatusRefunded {
		fromStatuses = append(fromStatuses, constants.OrderStatusPartialRefunded)
	}

	paymentStatus := constants.OrderPaymentStatusPartialRefunded
	if target == constants.OrderStatusRefunded {
		paymentStatus = constants.OrderPaymentStatusRefunded
	}
	rows, err := orderRepo.UpdateStatusFrom(order.ID, fromStatuses, target, map[string]interface{}{
		"payment_status": paymentStatus,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		// 订单未动：已在目标态则视为幂等，否则是并发冲突
		current, err := orderRepo.GetByID(order.ID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == target {
			return nil
		}
		return ErrOrderStatusConflict
	}

	oldStatus := order.Status
	if err := s.historyRepo.WithTx(tx).Append(&models.OrderStatusHistory{
		OrderID:   order.ID,
		OldStatus: &oldStatus,
		NewStatus: target,
		ActorType: constants.StatusActorAdmin,
		ActorID:   input.AdminID,
		Comment:   input.Reason,
	}); err != nil {
		return err
	}

	// 全额退款触发补偿：回补库存、回退销量、释放优惠券占用
	if target == constants.OrderStatusRefunded {
		return compensateOrderTx(tx, order, s.stockService, s.couponService)
	}
	return nil
}

// appendRefundEntry 把本次退款追加进 metadata 并更新累计值
func appendRefundEntry(metadata models.JSON, input RefundInput, newTotal decimal.Decimal, now time.Time) models.JSON {
	merged := models.JSON{}
	for k, v := range metadata {
		merged[k] = v
	}
	var refunds []interface{}
	if existing, ok := merged["refunds"].([]interface{}); ok {
		refunds = existing
	}
	refunds = append(refunds, map[string]interface{}{
		"amount":      input.Amount.String(),
		"admin_id":    input.AdminID,
		"reason":      input.Reason,
		"refunded_at": now.Format(time.RFC3339),
	})
	merged["refunds"] = refunds
	merged["refund_total"] = newTotal.String()
	return merged
}
