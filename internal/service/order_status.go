package service

import (
	"time"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"gorm.io/gorm"
)

// orderStatusTransitions 订单状态机合法流转表。
// completed/cancelled/refunded 为终态，不在任何目标列表中出现来源。
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
		constants.OrderStatusPartialRefunded,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
		constants.OrderStatusPartialRefunded,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
		constants.OrderStatusPartialRefunded,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusReturnRequested,
		constants.OrderStatusCompleted,
		constants.OrderStatusRefunded,
		constants.OrderStatusPartialRefunded,
	},
	constants.OrderStatusReturnRequested: {
		constants.OrderStatusRefunded,
		constants.OrderStatusPartialRefunded,
		constants.OrderStatusCompleted,
	},
	constants.OrderStatusPartialRefunded: {
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusCompleted: {},
	constants.OrderStatusCancelled: {},
	constants.OrderStatusRefunded:  {},
}

// TransitionAllowed 判断 from -> to 是否为合法流转
func TransitionAllowed(from, to string) bool {
	for _, target := range orderStatusTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus 判断是否终态
func IsTerminalOrderStatus(status string) bool {
	targets, ok := orderStatusTransitions[status]
	return ok && len(targets) == 0
}

// UpdateStatusInput 状态流转请求
type UpdateStatusInput struct {
	OrderID        uint
	NewStatus      string
	ActorType      string // system/customer/admin/gateway
	ActorID        uint
	Comment        string
	ExpectedStatus string // 非空时断言原状态，冲突返回错误而非空转
}

// UpdateStatus 执行订单状态流转。
// 用条件更新做乐观并发控制：0 行受影响时重读订单，
// 已在目标态按幂等成功处理；否则调用方有断言就报冲突，没有就原样返回当前状态。
// 流转进 cancelled/refunded 同事务内执行补偿。
func (s *OrderService) UpdateStatus(input UpdateStatusInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if input.ExpectedStatus != "" && order.Status != input.ExpectedStatus {
		return nil, ErrOrderStatusConflict
	}
	if order.Status == input.NewStatus {
		return order, nil
	}
	if !TransitionAllowed(order.Status, input.NewStatus) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{}
	if input.NewStatus == constants.OrderStatusCancelled {
		updates["cancelled_at"] = now
	}

	applied := false
	result := order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		rows, err := orderRepo.UpdateStatusFrom(order.ID, []string{order.Status}, input.NewStatus, updates)
		if err != nil {
			return err
		}
		if rows == 0 {
			current, err := orderRepo.GetByID(order.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return ErrOrderNotFound
			}
			if current.Status == input.NewStatus {
				// 并发请求已完成同一流转，按幂等成功处理
				result = current
				return nil
			}
			if input.ExpectedStatus != "" {
				return ErrOrderStatusConflict
			}
			result = current
			return nil
		}

		oldStatus := order.Status
		if err := s.historyRepo.WithTx(tx).Append(&models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: &oldStatus,
			NewStatus: input.NewStatus,
			ActorType: input.ActorType,
			ActorID:   input.ActorID,
			Comment:   input.Comment,
		}); err != nil {
			return err
		}

		if input.NewStatus == constants.OrderStatusCancelled || input.NewStatus == constants.OrderStatusRefunded {
			if err := compensateOrderTx(tx, order, s.stockService, s.couponService); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if applied {
		oldStatus := result.Status
		result.Status = input.NewStatus
		if input.NewStatus == constants.OrderStatusCancelled {
			result.CancelledAt = &now
		}
		logger.Infow("order_status_updated",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"old_status", oldStatus,
			"new_status", input.NewStatus,
			"actor_type", input.ActorType,
			"actor_id", input.ActorID,
		)
		s.notifyStatusChanged(order.ID, oldStatus, input.NewStatus)
	}
	return result, nil
}

// CancelOrder 客户取消自己的订单，只允许待支付单
func (s *OrderService) CancelOrder(orderID, userID uint, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderCancelNotAllowed
	}
	if reason == "" {
		reason = "客户取消订单"
	}
	return s.UpdateStatus(UpdateStatusInput{
		OrderID:        orderID,
		NewStatus:      constants.OrderStatusCancelled,
		ActorType:      constants.StatusActorCustomer,
		ActorID:        userID,
		Comment:        reason,
		ExpectedStatus: constants.OrderStatusPending,
	})
}

// compensateOrderTx 取消/退款补偿：回补每个订单项的库存与销量，释放优惠券占用。
// 与下单快路径严格对称，不触碰仓库流水账。
func compensateOrderTx(tx *gorm.DB, order *models.Order, stockService *StockService, couponService *CouponService) error {
	items := order.Items
	if len(items) == 0 {
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
	}
	if err := stockService.RestoreForOrderItems(tx, items); err != nil {
		return err
	}
	return couponService.ReleaseUsage(tx, order.ID)
}

func (s *OrderService) notifyStatusChanged(orderID uint, oldStatus, newStatus string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}); err != nil {
		logger.Warnw("order_enqueue_status_email_failed",
			"order_id", orderID,
			"status", newStatus,
			"error", err,
		)
	}
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder 管理端获取订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetStatusHistory 获取订单状态流转审计记录
func (s *OrderService) GetStatusHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	return s.historyRepo.ListByOrder(orderID)
}
