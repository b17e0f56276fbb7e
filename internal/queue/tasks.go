package queue

import (
	"encoding/json"

	"github.com/shopnext/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskPaymentExpire 支付单超时处理任务
	TaskPaymentExpire = constants.TaskPaymentExpire
	// TaskCacheInvalidate 缓存失效任务
	TaskCacheInvalidate = constants.TaskCacheInvalidate
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID   uint   `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// PaymentExpirePayload 支付单超时任务载荷
type PaymentExpirePayload struct {
	TransactionID uint `json:"transaction_id"`
	OrderID       uint `json:"order_id"`
}

// CacheInvalidatePayload 缓存失效任务载荷
type CacheInvalidatePayload struct {
	Namespace string `json:"namespace"`
	Reason    string `json:"reason"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewPaymentExpireTask 创建支付单超时任务
func NewPaymentExpireTask(payload PaymentExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentExpire, body), nil
}

// NewCacheInvalidateTask 创建缓存失效任务
func NewCacheInvalidateTask(payload CacheInvalidatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheInvalidate, body), nil
}
