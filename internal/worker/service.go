package worker

import (
	"context"
	"errors"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/service"

	"github.com/hibiken/asynq"
)

const (
	// 孤儿支付单巡检周期与单轮处理上限
	paymentSweepInterval      = time.Minute
	paymentSweepBatchSize     = 100
	defaultSweepExpireMinutes = 30
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PaymentService != nil {
		go s.runPaymentSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPaymentSweepLoop 周期性扫描超时未支付的流水。
// 延迟任务丢失（队列重启、投递失败）时由这条兜底链路接管。
func (s *Service) runPaymentSweepLoop(ctx context.Context) {
	runOnce := func() {
		if err := s.sweepExpiredPayments(); err != nil {
			logger.Warnw("worker_payment_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(paymentSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) sweepExpiredPayments() error {
	expireMinutes := defaultSweepExpireMinutes
	if s.consumer.SettingService != nil {
		if v, err := s.consumer.SettingService.GetPaymentExpireMinutes(defaultSweepExpireMinutes); err == nil && v > 0 {
			expireMinutes = v
		}
	}
	cutoff := time.Now().Add(-time.Duration(expireMinutes) * time.Minute)

	txns, err := s.consumer.PaymentService.ListExpiredPending(cutoff, paymentSweepBatchSize)
	if err != nil {
		return err
	}
	for _, txn := range txns {
		rows, err := s.consumer.PaymentTxnRepo.MarkStatusIf(
			txn.ID,
			[]string{constants.PaymentStatusPending},
			constants.PaymentStatusFailed,
			nil,
		)
		if err != nil {
			logger.Warnw("worker_payment_sweep_mark_failed", "transaction_id", txn.ID, "error", err)
			continue
		}
		if rows == 0 {
			continue
		}
		logger.Infow("worker_payment_sweep_expired",
			"transaction_id", txn.ID,
			"order_id", txn.OrderID,
		)
		if _, err := s.consumer.OrderService.UpdateStatus(service.UpdateStatusInput{
			OrderID:        txn.OrderID,
			NewStatus:      constants.OrderStatusCancelled,
			ActorType:      constants.StatusActorSystem,
			Comment:        "支付超时自动取消",
			ExpectedStatus: constants.OrderStatusPending,
		}); err != nil {
			if errors.Is(err, service.ErrOrderStatusConflict) || errors.Is(err, service.ErrOrderStatusInvalid) || errors.Is(err, service.ErrOrderNotFound) {
				continue
			}
			logger.Warnw("worker_payment_sweep_cancel_failed", "order_id", txn.OrderID, "error", err)
		}
	}
	return nil
}
