package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateStockTransactionRequest 库存流水创建请求
type CreateStockTransactionRequest struct {
	VariantID   uint   `json:"variant_id" binding:"required"`
	WarehouseID uint   `json:"warehouse_id" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	Reference   string `json:"reference"`
	Note        string `json:"note"`
}

// CreateStockTransaction 记录库存流水 (Admin)
func (h *Handler) CreateStockTransaction(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req CreateStockTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	txn, err := h.StockService.CreateTransaction(service.CreateTransactionInput{
		VariantID:   req.VariantID,
		WarehouseID: req.WarehouseID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Reference:   strings.TrimSpace(req.Reference),
		Note:        strings.TrimSpace(req.Note),
		ActorID:     adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStockTxnInvalid):
			respondError(c, response.CodeBadRequest, "库存流水参数无效", nil)
		case errors.Is(err, service.ErrStockInsufficient):
			respondError(c, response.CodeConflict, "库存不足", nil)
		case errors.Is(err, service.ErrVariantNotFound):
			respondError(c, response.CodeBadRequest, "商品规格不存在", nil)
		case errors.Is(err, service.ErrWarehouseInvalid):
			respondError(c, response.CodeBadRequest, "仓库无效", nil)
		default:
			respondError(c, response.CodeInternal, "库存流水创建失败", err)
		}
		return
	}

	response.Success(c, txn)
}

// TransferStockRequest 仓库调拨请求
type TransferStockRequest struct {
	VariantID       uint   `json:"variant_id" binding:"required"`
	FromWarehouseID uint   `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uint   `json:"to_warehouse_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required"`
	Note            string `json:"note"`
}

// TransferStock 仓库间调拨 (Admin)
func (h *Handler) TransferStock(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	reference, err := h.StockService.Transfer(service.TransferInput{
		VariantID:       req.VariantID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		Note:            strings.TrimSpace(req.Note),
		ActorID:         adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStockTxnInvalid):
			respondError(c, response.CodeBadRequest, "调拨参数无效", nil)
		case errors.Is(err, service.ErrStockInsufficient):
			respondError(c, response.CodeConflict, "调出仓库库存不足", nil)
		case errors.Is(err, service.ErrWarehouseInvalid):
			respondError(c, response.CodeBadRequest, "仓库无效", nil)
		default:
			respondError(c, response.CodeInternal, "仓库调拨失败", err)
		}
		return
	}

	response.Success(c, gin.H{"reference": reference})
}

// ListStockTransactions 获取库存流水列表 (Admin)
func (h *Handler) ListStockTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	variantID, _ := strconv.ParseUint(c.Query("variant_id"), 10, 64)
	warehouseID, _ := strconv.ParseUint(c.Query("warehouse_id"), 10, 64)

	txns, total, err := h.StockService.ListTransactions(repository.InventoryTxnListFilter{
		Page:        page,
		PageSize:    pageSize,
		VariantID:   uint(variantID),
		WarehouseID: uint(warehouseID),
		Type:        strings.TrimSpace(c.Query("type")),
		Reference:   strings.TrimSpace(c.Query("reference")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "库存流水查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, txns, pagination)
}

// ListVariantStocks 获取规格分仓余额 (Admin)
func (h *Handler) ListVariantStocks(c *gin.Context) {
	variantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || variantID == 0 {
		respondError(c, response.CodeBadRequest, "商品规格标识无效", nil)
		return
	}

	stocks, err := h.StockService.ListVariantStocks(uint(variantID))
	if err != nil {
		respondError(c, response.CodeInternal, "分仓余额查询失败", err)
		return
	}
	response.Success(c, stocks)
}

// ListStockAlerts 获取库存预警列表 (Admin)
func (h *Handler) ListStockAlerts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	variantID, _ := strconv.ParseUint(c.Query("variant_id"), 10, 64)

	alerts, total, err := h.StockService.ListAlerts(repository.StockAlertListFilter{
		Page:         page,
		PageSize:     pageSize,
		VariantID:    uint(variantID),
		AlertType:    strings.TrimSpace(c.Query("alert_type")),
		OnlyUnsolved: c.Query("only_unsolved") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "库存预警查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, alerts, pagination)
}

// ResolveStockAlert 处理库存预警 (Admin)
func (h *Handler) ResolveStockAlert(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	alertID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || alertID == 0 {
		respondError(c, response.CodeBadRequest, "预警标识无效", nil)
		return
	}

	if err := h.StockService.ResolveAlert(uint(alertID), adminID); err != nil {
		switch {
		case errors.Is(err, service.ErrStockAlertNotFound):
			respondError(c, response.CodeNotFound, "库存预警不存在", nil)
		case errors.Is(err, service.ErrStockAlertResolved):
			respondError(c, response.CodeConflict, "库存预警已处理", nil)
		default:
			respondError(c, response.CodeInternal, "库存预警处理失败", err)
		}
		return
	}
	response.Success(c, nil)
}
