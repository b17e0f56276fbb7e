package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// PaymentTransactionRepository 支付流水数据访问接口
type PaymentTransactionRepository interface {
	Create(txn *models.PaymentTransaction) error
	Update(txn *models.PaymentTransaction) error
	GetByID(id uint) (*models.PaymentTransaction, error)
	GetByTransactionNo(no string) (*models.PaymentTransaction, error)
	GetLatestByGatewayOrderCode(code string) (*models.PaymentTransaction, error)
	ListByOrder(orderID uint) ([]models.PaymentTransaction, error)
	GetReusablePending(orderID uint, method string, amount models.Money, since time.Time) (*models.PaymentTransaction, error)
	MarkStatusIf(id uint, fromStatuses []string, newStatus string, updates map[string]interface{}) (int64, error)
	MarkRefundIf(id uint, fromStatuses []string, newStatus string, priorRefunded, newRefunded models.Money, updates map[string]interface{}) (int64, error)
	ListExpiredPending(before time.Time, limit int) ([]models.PaymentTransaction, error)
	ListAdmin(filter PaymentListFilter) ([]models.PaymentTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentTransactionRepository
}

// GormPaymentTransactionRepository GORM 实现
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository 创建支付流水仓库
func NewPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentTransactionRepository) WithTx(tx *gorm.DB) *GormPaymentTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentTransactionRepository{db: tx}
}

// Create 创建支付流水
func (r *GormPaymentTransactionRepository) Create(txn *models.PaymentTransaction) error {
	return r.db.Create(txn).Error
}

// Update 更新支付流水
func (r *GormPaymentTransactionRepository) Update(txn *models.PaymentTransaction) error {
	return r.db.Save(txn).Error
}

// GetByID 根据 ID 获取支付流水
func (r *GormPaymentTransactionRepository) GetByID(id uint) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetByTransactionNo 根据内部流水号获取支付流水
func (r *GormPaymentTransactionRepository) GetByTransactionNo(no string) (*models.PaymentTransaction, error) {
	no = strings.TrimSpace(no)
	if no == "" {
		return nil, nil
	}
	var txn models.PaymentTransaction
	result := r.db.Where("transaction_no = ?", no).Limit(1).Find(&txn)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &txn, nil
}

// GetLatestByGatewayOrderCode 根据网关订单码获取最新支付流水
func (r *GormPaymentTransactionRepository) GetLatestByGatewayOrderCode(code string) (*models.PaymentTransaction, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var txn models.PaymentTransaction
	result := r.db.Where("gateway_order_code = ?", code).Order("id desc").Limit(1).Find(&txn)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &txn, nil
}

// ListByOrder 获取订单的支付流水
func (r *GormPaymentTransactionRepository) ListByOrder(orderID uint) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	if err := r.db.Where("order_id = ?", orderID).Order("id desc").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// GetReusablePending 查找可复用的待支付流水（同订单、同金额、同方式，
// 仍持有有效收银台链接且落在回看窗口内），用于抑制重复发起。
func (r *GormPaymentTransactionRepository) GetReusablePending(orderID uint, method string, amount models.Money, since time.Time) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	result := r.db.Where(
		"order_id = ? AND method = ? AND amount = ? AND status = ? AND created_at >= ? AND ((checkout_url IS NOT NULL AND checkout_url <> '') OR (qr_code IS NOT NULL AND qr_code <> ''))",
		orderID,
		method,
		amount,
		constants.PaymentStatusPending,
		since,
	).Order("id desc").Limit(1).Find(&txn)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &txn, nil
}

// MarkStatusIf 条件翻转支付流水状态，返回受影响行数。
// 0 行表示当前状态已不在 fromStatuses 中（重复回调或并发翻转）。
func (r *GormPaymentTransactionRepository) MarkStatusIf(id uint, fromStatuses []string, newStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = newStatus
	result := r.db.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkRefundIf 条件翻转退款状态，累计已退金额作乐观锁：
// 读取后被并发退款改写过的行不再匹配，返回 0 行。
func (r *GormPaymentTransactionRepository) MarkRefundIf(id uint, fromStatuses []string, newStatus string, priorRefunded, newRefunded models.Money, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = newStatus
	updates["refunded_amount"] = newRefunded
	result := r.db.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status IN ? AND refunded_amount = ?", id, fromStatuses, priorRefunded).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListExpiredPending 列出超过时限仍未支付的流水，供对账清理任务拉取。
func (r *GormPaymentTransactionRepository) ListExpiredPending(before time.Time, limit int) ([]models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var txns []models.PaymentTransaction
	if err := r.db.Where("status = ? AND created_at < ?", constants.PaymentStatusPending, before).
		Order("id asc").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// ListAdmin 管理端支付流水列表
func (r *GormPaymentTransactionRepository) ListAdmin(filter PaymentListFilter) ([]models.PaymentTransaction, int64, error) {
	var txns []models.PaymentTransaction
	query := r.db.Model(&models.PaymentTransaction{})

	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
