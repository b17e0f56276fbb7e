package service

import (
	"fmt"
	"strings"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 低库存预警默认阈值，可被 shop_config.low_stock_threshold 覆盖
const defaultLowStockThreshold = 10

// StockService 仓库维度库存服务。
// 规格上的 stock_quantity 是全仓汇总的冗余值，所有分仓流水落账后重算回写。
type StockService struct {
	productRepo      repository.ProductRepository
	variantStockRepo repository.VariantStockRepository
	inventoryRepo    repository.InventoryTransactionRepository
	alertRepo        repository.StockAlertRepository
	warehouseRepo    repository.WarehouseRepository
	settingService   *SettingService
}

// NewStockService 创建库存服务
func NewStockService(productRepo repository.ProductRepository, variantStockRepo repository.VariantStockRepository, inventoryRepo repository.InventoryTransactionRepository, alertRepo repository.StockAlertRepository, warehouseRepo repository.WarehouseRepository, settingService *SettingService) *StockService {
	return &StockService{
		productRepo:      productRepo,
		variantStockRepo: variantStockRepo,
		inventoryRepo:    inventoryRepo,
		alertRepo:        alertRepo,
		warehouseRepo:    warehouseRepo,
		settingService:   settingService,
	}
}

// CreateTransactionInput 库存流水输入
type CreateTransactionInput struct {
	VariantID   uint
	WarehouseID uint
	Type        string
	Quantity    int // 正数，方向由类型决定
	Reference   string
	Note        string
	ActorID     uint
}

// signedQuantity 按流水类型解析带符号变动量
func signedQuantity(txnType string, quantity int) (int, error) {
	if quantity == 0 {
		return 0, ErrStockTxnInvalid
	}
	switch txnType {
	case constants.InventoryTxnTypeImport, constants.InventoryTxnTypeReturn, constants.InventoryTxnTypeTransferIn:
		if quantity < 0 {
			return 0, ErrStockTxnInvalid
		}
		return quantity, nil
	case constants.InventoryTxnTypeSale, constants.InventoryTxnTypeDamaged, constants.InventoryTxnTypeTransferOut:
		if quantity < 0 {
			return 0, ErrStockTxnInvalid
		}
		return -quantity, nil
	case constants.InventoryTxnTypeAdjustment:
		// 调整类型两个方向都合法，调用方直接给带符号值
		return quantity, nil
	default:
		return 0, ErrStockTxnInvalid
	}
}

// CreateTransaction 记录一笔库存流水并联动分仓余额、规格汇总与预警
func (s *StockService) CreateTransaction(input CreateTransactionInput) (*models.InventoryTransaction, error) {
	if input.VariantID == 0 || input.WarehouseID == 0 {
		return nil, ErrStockTxnInvalid
	}
	delta, err := signedQuantity(strings.TrimSpace(input.Type), input.Quantity)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil || !warehouse.IsActive {
		return nil, ErrWarehouseInvalid
	}
	variant, err := s.productRepo.GetVariantByID(input.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	var txn *models.InventoryTransaction
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		applied, applyErr := s.applyLedgerDelta(tx, input.VariantID, input.WarehouseID, delta, strings.TrimSpace(input.Type), input.Reference, input.Note, input.ActorID)
		if applyErr != nil {
			return applyErr
		}
		txn = applied
		return s.syncVariantTotal(tx, input.VariantID)
	})
	if err != nil {
		return nil, err
	}

	s.evaluateAlerts(input.VariantID)
	return txn, nil
}

// applyLedgerDelta 在事务内落一行流水并条件更新分仓余额
func (s *StockService) applyLedgerDelta(tx *gorm.DB, variantID, warehouseID uint, delta int, txnType, reference, note string, actorID uint) (*models.InventoryTransaction, error) {
	stockRepo := s.variantStockRepo.WithTx(tx)
	inventoryRepo := s.inventoryRepo.WithTx(tx)

	if _, err := stockRepo.GetOrCreate(variantID, warehouseID); err != nil {
		return nil, err
	}
	ok, err := stockRepo.ApplyDelta(variantID, warehouseID, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStockInsufficient
	}
	stock, err := stockRepo.Get(variantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, ErrStockInsufficient
	}

	txn := &models.InventoryTransaction{
		VariantID:    variantID,
		WarehouseID:  warehouseID,
		Type:         txnType,
		Quantity:     delta,
		BalanceAfter: stock.Quantity,
		Reference:    strings.TrimSpace(reference),
		Note:         strings.TrimSpace(note),
		ActorID:      actorID,
	}
	if err := inventoryRepo.Append(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// syncVariantTotal 重算分仓合计并回写规格冗余库存
func (s *StockService) syncVariantTotal(tx *gorm.DB, variantID uint) error {
	stockRepo := s.variantStockRepo.WithTx(tx)
	productRepo := s.productRepo.WithTx(tx)

	total, err := stockRepo.SumQuantity(variantID)
	if err != nil {
		return err
	}
	return productRepo.SetVariantStock(variantID, total)
}

// TransferInput 仓库间调拨输入
type TransferInput struct {
	VariantID       uint
	FromWarehouseID uint
	ToWarehouseID   uint
	Quantity        int
	Note            string
	ActorID         uint
}

// Transfer 仓库间调拨：同一事务内一出一进，两行流水共享调拨参考号。
// 任一步失败整体回滚，两仓余额都不变。
func (s *StockService) Transfer(input TransferInput) (string, error) {
	if input.VariantID == 0 || input.FromWarehouseID == 0 || input.ToWarehouseID == 0 || input.Quantity <= 0 {
		return "", ErrStockTxnInvalid
	}
	if input.FromWarehouseID == input.ToWarehouseID {
		return "", ErrStockTxnInvalid
	}
	for _, warehouseID := range []uint{input.FromWarehouseID, input.ToWarehouseID} {
		warehouse, err := s.warehouseRepo.GetByID(warehouseID)
		if err != nil {
			return "", err
		}
		if warehouse == nil || !warehouse.IsActive {
			return "", ErrWarehouseInvalid
		}
	}

	reference := fmt.Sprintf("TRF-%s", strings.ToUpper(uuid.NewString()[:8]))
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.applyLedgerDelta(tx, input.VariantID, input.FromWarehouseID, -input.Quantity, constants.InventoryTxnTypeTransferOut, reference, input.Note, input.ActorID); err != nil {
			return err
		}
		if _, err := s.applyLedgerDelta(tx, input.VariantID, input.ToWarehouseID, input.Quantity, constants.InventoryTxnTypeTransferIn, reference, input.Note, input.ActorID); err != nil {
			return err
		}
		return s.syncVariantTotal(tx, input.VariantID)
	})
	if err != nil {
		return "", err
	}

	logger.Infow("stock_transfer_completed",
		"variant_id", input.VariantID,
		"from_warehouse_id", input.FromWarehouseID,
		"to_warehouse_id", input.ToWarehouseID,
		"quantity", input.Quantity,
		"reference", reference,
	)
	return reference, nil
}

// Reserve 预留分仓库存（可用量不足则拒绝）
func (s *StockService) Reserve(variantID, warehouseID uint, quantity int) error {
	if variantID == 0 || warehouseID == 0 || quantity <= 0 {
		return ErrStockTxnInvalid
	}
	ok, err := s.variantStockRepo.Reserve(variantID, warehouseID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStockInsufficient
	}
	return nil
}

// Release 释放预留（下限截断到 0，重复释放无副作用）
func (s *StockService) Release(variantID, warehouseID uint, quantity int) error {
	if variantID == 0 || warehouseID == 0 || quantity <= 0 {
		return ErrStockTxnInvalid
	}
	return s.variantStockRepo.Release(variantID, warehouseID, quantity)
}

// evaluateAlerts 评估并按需创建库存预警，同类型未解决时不重复创建
func (s *StockService) evaluateAlerts(variantID uint) {
	variant, err := s.productRepo.GetVariantByID(variantID)
	if err != nil || variant == nil {
		return
	}
	threshold := defaultLowStockThreshold
	if s.settingService != nil {
		if v, err := s.settingService.GetLowStockThreshold(defaultLowStockThreshold); err == nil {
			threshold = v
		}
	}

	alertType := ""
	switch {
	case variant.StockQuantity <= 0:
		alertType = constants.StockAlertTypeOutOfStock
	case variant.StockQuantity <= threshold:
		alertType = constants.StockAlertTypeLowStock
	default:
		return
	}

	exists, err := s.alertRepo.HasUnresolved(variantID, alertType)
	if err != nil || exists {
		return
	}
	alert := &models.StockAlert{
		VariantID:    variantID,
		AlertType:    alertType,
		Threshold:    threshold,
		CurrentLevel: variant.StockQuantity,
	}
	if err := s.alertRepo.Create(alert); err != nil {
		logger.Warnw("stock_alert_create_failed",
			"variant_id", variantID,
			"alert_type", alertType,
			"error", err,
		)
		return
	}
	logger.Warnw("stock_alert_raised",
		"variant_id", variantID,
		"alert_type", alertType,
		"current_level", variant.StockQuantity,
		"threshold", threshold,
	)
}

// ResolveAlert 标记库存预警已处理（条件更新，重复处理返回已处理错误）
func (s *StockService) ResolveAlert(alertID, adminID uint) error {
	affected, err := s.alertRepo.Resolve(alertID, adminID)
	if err != nil {
		return err
	}
	if affected == 0 {
		alert, getErr := s.alertRepo.GetByID(alertID)
		if getErr != nil {
			return getErr
		}
		if alert == nil {
			return ErrStockAlertNotFound
		}
		return ErrStockAlertResolved
	}
	return nil
}

// ListTransactions 库存流水列表
func (s *StockService) ListTransactions(filter repository.InventoryTxnListFilter) ([]models.InventoryTransaction, int64, error) {
	return s.inventoryRepo.List(filter)
}

// ListAlerts 库存预警列表
func (s *StockService) ListAlerts(filter repository.StockAlertListFilter) ([]models.StockAlert, int64, error) {
	return s.alertRepo.List(filter)
}

// ListVariantStocks 规格分仓库存明细
func (s *StockService) ListVariantStocks(variantID uint) ([]models.VariantStock, error) {
	if variantID == 0 {
		return nil, ErrVariantNotFound
	}
	return s.variantStockRepo.ListByVariant(variantID)
}

// RestoreForOrderItems 订单取消/退款时回补规格汇总库存并回退销量。
// 下单快捷路径只动规格汇总，不落分仓流水，回补对称处理。
func (s *StockService) RestoreForOrderItems(tx *gorm.DB, items []models.OrderItem) error {
	productRepo := s.productRepo.WithTx(tx)
	for _, item := range items {
		if err := productRepo.IncrementVariantStock(item.VariantID, item.Quantity); err != nil {
			return err
		}
		if err := productRepo.DecrementSold(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
