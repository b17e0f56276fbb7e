package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"
)

func (env *testEnv) seedWarehouse(t *testing.T, code string, active bool) *models.Warehouse {
	t.Helper()
	warehouse := models.Warehouse{Code: code, Name: code, IsActive: active}
	if err := env.db.Create(&warehouse).Error; err != nil {
		t.Fatalf("create warehouse failed: %v", err)
	}
	return &warehouse
}

func (env *testEnv) importStock(t *testing.T, variantID, warehouseID uint, qty int) {
	t.Helper()
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID:   variantID,
		WarehouseID: warehouseID,
		Type:        constants.InventoryTxnTypeImport,
		Quantity:    qty,
		Reference:   "test-import",
	}); err != nil {
		t.Fatalf("import stock failed: %v", err)
	}
}

func TestSignedQuantity(t *testing.T) {
	cases := []struct {
		txnType  string
		quantity int
		want     int
		wantErr  bool
	}{
		{constants.InventoryTxnTypeImport, 10, 10, false},
		{constants.InventoryTxnTypeReturn, 3, 3, false},
		{constants.InventoryTxnTypeTransferIn, 5, 5, false},
		{constants.InventoryTxnTypeSale, 4, -4, false},
		{constants.InventoryTxnTypeDamaged, 2, -2, false},
		{constants.InventoryTxnTypeTransferOut, 6, -6, false},
		{constants.InventoryTxnTypeAdjustment, -7, -7, false},
		{constants.InventoryTxnTypeAdjustment, 7, 7, false},
		{constants.InventoryTxnTypeImport, 0, 0, true},
		{constants.InventoryTxnTypeImport, -1, 0, true},
		{constants.InventoryTxnTypeSale, -1, 0, true},
		{"bogus", 1, 0, true},
	}
	for _, c := range cases {
		got, err := signedQuantity(c.txnType, c.quantity)
		if c.wantErr {
			if !errors.Is(err, ErrStockTxnInvalid) {
				t.Fatalf("%s/%d: expected invalid, got %v", c.txnType, c.quantity, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("%s/%d: want %d, got %d (%v)", c.txnType, c.quantity, c.want, got, err)
		}
	}
}

func TestCreateTransactionLedgerConsistency(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)

	env.importStock(t, variant.ID, warehouse.ID, 20)
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID:   variant.ID,
		WarehouseID: warehouse.ID,
		Type:        constants.InventoryTxnTypeSale,
		Quantity:    6,
	}); err != nil {
		t.Fatalf("sale txn failed: %v", err)
	}
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID:   variant.ID,
		WarehouseID: warehouse.ID,
		Type:        constants.InventoryTxnTypeAdjustment,
		Quantity:    -2,
		Note:        "盘亏",
	}); err != nil {
		t.Fatalf("adjustment txn failed: %v", err)
	}

	stock, err := env.variantStockRepo.Get(variant.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if stock.Quantity != 12 {
		t.Fatalf("warehouse balance want 12, got %d", stock.Quantity)
	}

	// 流水求和必须等于余额，最后一行的结余也是
	txns, _, err := env.stockService.ListTransactions(repository.InventoryTxnListFilter{VariantID: variant.ID, WarehouseID: warehouse.ID, PageSize: 50})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	sum := 0
	for _, txn := range txns {
		sum += txn.Quantity
	}
	if sum != stock.Quantity {
		t.Fatalf("ledger sum %d != balance %d", sum, stock.Quantity)
	}

	// 规格冗余汇总同步
	if got := env.variantStock(t, variant.ID); got != 12 {
		t.Fatalf("variant total want 12, got %d", got)
	}
}

func TestCreateTransactionRejectsOversell(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)
	env.importStock(t, variant.ID, warehouse.ID, 3)

	_, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID:   variant.ID,
		WarehouseID: warehouse.ID,
		Type:        constants.InventoryTxnTypeSale,
		Quantity:    5,
	})
	if !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected insufficient, got: %v", err)
	}

	// 拒绝的流水不能留痕
	var txnCount int64
	env.db.Model(&models.InventoryTransaction{}).Where("variant_id = ?", variant.ID).Count(&txnCount)
	if txnCount != 1 {
		t.Fatalf("ledger rows want 1 (import only), got %d", txnCount)
	}
	stock, err := env.variantStockRepo.Get(variant.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if stock.Quantity != 3 {
		t.Fatalf("balance want 3, got %d", stock.Quantity)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	active := env.seedWarehouse(t, "WH-A", true)
	inactive := env.seedWarehouse(t, "WH-X", false)

	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID: variant.ID, WarehouseID: inactive.ID, Type: constants.InventoryTxnTypeImport, Quantity: 1,
	}); !errors.Is(err, ErrWarehouseInvalid) {
		t.Fatalf("expected warehouse invalid, got: %v", err)
	}
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID: 9999, WarehouseID: active.ID, Type: constants.InventoryTxnTypeImport, Quantity: 1,
	}); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected variant not found, got: %v", err)
	}
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID: variant.ID, WarehouseID: active.ID, Type: constants.InventoryTxnTypeImport, Quantity: 0,
	}); !errors.Is(err, ErrStockTxnInvalid) {
		t.Fatalf("expected txn invalid, got: %v", err)
	}
}

func TestTransferSharedReference(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	from := env.seedWarehouse(t, "WH-A", true)
	to := env.seedWarehouse(t, "WH-B", true)
	env.importStock(t, variant.ID, from.ID, 10)

	reference, err := env.stockService.Transfer(TransferInput{
		VariantID:       variant.ID,
		FromWarehouseID: from.ID,
		ToWarehouseID:   to.ID,
		Quantity:        4,
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if !strings.HasPrefix(reference, "TRF-") {
		t.Fatalf("unexpected transfer reference: %s", reference)
	}

	fromStock, _ := env.variantStockRepo.Get(variant.ID, from.ID)
	toStock, _ := env.variantStockRepo.Get(variant.ID, to.ID)
	if fromStock.Quantity != 6 || toStock.Quantity != 4 {
		t.Fatalf("balances want 6/4, got %d/%d", fromStock.Quantity, toStock.Quantity)
	}
	// 调拨不改变规格总量
	if got := env.variantStock(t, variant.ID); got != 10 {
		t.Fatalf("variant total want 10, got %d", got)
	}

	var refCount int64
	env.db.Model(&models.InventoryTransaction{}).Where("reference = ?", reference).Count(&refCount)
	if refCount != 2 {
		t.Fatalf("expected 2 ledger rows sharing reference, got %d", refCount)
	}
}

func TestTransferInsufficientRollsBack(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	from := env.seedWarehouse(t, "WH-A", true)
	to := env.seedWarehouse(t, "WH-B", true)
	env.importStock(t, variant.ID, from.ID, 2)

	if _, err := env.stockService.Transfer(TransferInput{
		VariantID:       variant.ID,
		FromWarehouseID: from.ID,
		ToWarehouseID:   to.ID,
		Quantity:        5,
	}); !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected insufficient, got: %v", err)
	}

	fromStock, _ := env.variantStockRepo.Get(variant.ID, from.ID)
	if fromStock.Quantity != 2 {
		t.Fatalf("from balance want 2, got %d", fromStock.Quantity)
	}
	var txnCount int64
	env.db.Model(&models.InventoryTransaction{}).Where("variant_id = ? AND type IN ?", variant.ID,
		[]string{constants.InventoryTxnTypeTransferOut, constants.InventoryTxnTypeTransferIn}).Count(&txnCount)
	if txnCount != 0 {
		t.Fatalf("expected no transfer ledger rows, got %d", txnCount)
	}
}

func TestTransferSameWarehouseRejected(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)

	if _, err := env.stockService.Transfer(TransferInput{
		VariantID:       variant.ID,
		FromWarehouseID: warehouse.ID,
		ToWarehouseID:   warehouse.ID,
		Quantity:        1,
	}); !errors.Is(err, ErrStockTxnInvalid) {
		t.Fatalf("expected txn invalid, got: %v", err)
	}
}

func TestStockAlertsRaisedAndDeduplicated(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)

	// 默认低库存阈值 10：补到 5 触发 low_stock
	env.importStock(t, variant.ID, warehouse.ID, 5)
	alerts, _, err := env.stockService.ListAlerts(repository.StockAlertListFilter{VariantID: variant.ID, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertType != constants.StockAlertTypeLowStock {
		t.Fatalf("expected one low_stock alert, got %+v", alerts)
	}

	// 仍在低位的后续流水不重复报警
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID: variant.ID, WarehouseID: warehouse.ID, Type: constants.InventoryTxnTypeSale, Quantity: 1,
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	alerts, _, err = env.stockService.ListAlerts(repository.StockAlertListFilter{VariantID: variant.ID, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("low_stock alert rows want 1, got %d", len(alerts))
	}

	// 清零后追加 out_of_stock 预警
	if _, err := env.stockService.CreateTransaction(CreateTransactionInput{
		VariantID: variant.ID, WarehouseID: warehouse.ID, Type: constants.InventoryTxnTypeSale, Quantity: 4,
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}
	alerts, _, err = env.stockService.ListAlerts(repository.StockAlertListFilter{VariantID: variant.ID, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alert rows want 2, got %d", len(alerts))
	}
}

func TestResolveAlertConditional(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)
	env.importStock(t, variant.ID, warehouse.ID, 3)

	alerts, _, err := env.stockService.ListAlerts(repository.StockAlertListFilter{VariantID: variant.ID, PageSize: 10})
	if err != nil || len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d (%v)", len(alerts), err)
	}

	if err := env.stockService.ResolveAlert(alerts[0].ID, 7); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := env.stockService.ResolveAlert(alerts[0].ID, 7); !errors.Is(err, ErrStockAlertResolved) {
		t.Fatalf("expected already resolved, got: %v", err)
	}
	if err := env.stockService.ResolveAlert(9999, 7); !errors.Is(err, ErrStockAlertNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestReserveAndRelease(t *testing.T) {
	env := setupServiceTest(t)
	variant := env.seedVariant(t, 100000, 0)
	warehouse := env.seedWarehouse(t, "WH-A", true)
	env.importStock(t, variant.ID, warehouse.ID, 5)

	if err := env.stockService.Reserve(variant.ID, warehouse.ID, 3); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	// 可用量 = 数量 - 预留，只剩 2
	if err := env.stockService.Reserve(variant.ID, warehouse.ID, 3); !errors.Is(err, ErrStockInsufficient) {
		t.Fatalf("expected insufficient, got: %v", err)
	}

	// 释放超过预留量时下限截断到 0
	if err := env.stockService.Release(variant.ID, warehouse.ID, 10); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	stock, err := env.variantStockRepo.Get(variant.ID, warehouse.ID)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if stock.Reserved != 0 {
		t.Fatalf("reserved want 0, got %d", stock.Reserved)
	}
	if err := env.stockService.Reserve(variant.ID, warehouse.ID, 5); err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
}
