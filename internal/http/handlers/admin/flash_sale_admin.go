package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateFlashSaleRequest 创建限时抢购请求
type CreateFlashSaleRequest struct {
	Name     string                          `json:"name" binding:"required"`
	StartsAt time.Time                       `json:"starts_at" binding:"required"`
	EndsAt   time.Time                       `json:"ends_at" binding:"required"`
	IsActive bool                            `json:"is_active"`
	Products []CreateFlashSaleProductRequest `json:"products" binding:"required"`
}

// CreateFlashSaleProductRequest 活动商品请求
type CreateFlashSaleProductRequest struct {
	ProductID uint         `json:"product_id" binding:"required"`
	SalePrice models.Money `json:"sale_price" binding:"required"`
	Quota     int          `json:"quota"`
}

// CreateFlashSale 创建限时抢购活动 (Admin)
func (h *Handler) CreateFlashSale(c *gin.Context) {
	var req CreateFlashSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	products := make([]service.CreateFlashSaleProduct, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, service.CreateFlashSaleProduct{
			ProductID: p.ProductID,
			SalePrice: p.SalePrice,
			Quota:     p.Quota,
		})
	}

	sale, err := h.FlashSaleService.Create(service.CreateFlashSaleInput{
		Name:     req.Name,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		IsActive: req.IsActive,
		Products: products,
	})
	if err != nil {
		if errors.Is(err, service.ErrFlashSaleInvalid) {
			respondError(c, response.CodeBadRequest, "限时抢购配置无效", nil)
			return
		}
		respondError(c, response.CodeInternal, "限时抢购创建失败", err)
		return
	}

	response.Success(c, sale)
}

// ListFlashSales 获取限时抢购列表 (Admin)
func (h *Handler) ListFlashSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	sales, total, err := h.FlashSaleService.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "限时抢购查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, sales, pagination)
}

// SetFlashSaleActive 启用/停用限时抢购 (Admin)
func (h *Handler) SetFlashSaleActive(c *gin.Context) {
	saleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || saleID == 0 {
		respondError(c, response.CodeBadRequest, "活动标识无效", nil)
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	sale, err := h.FlashSaleService.SetActive(uint(saleID), req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrFlashSaleNotFound) {
			respondError(c, response.CodeNotFound, "限时抢购活动不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "限时抢购更新失败", err)
		return
	}
	response.Success(c, sale)
}
