package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 获取订单列表 (Admin)
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        uint(userID),
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情 (Admin)
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	order, err := h.OrderService.GetOrder(uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest 订单状态变更请求
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	Comment        string `json:"comment"`
	ExpectedStatus string `json:"expected_status"`
}

// UpdateOrderStatus 变更订单状态 (Admin)
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	order, err := h.OrderService.UpdateStatus(service.UpdateStatusInput{
		OrderID:        uint(orderID),
		NewStatus:      strings.TrimSpace(req.Status),
		ActorType:      constants.StatusActorAdmin,
		ActorID:        adminID,
		Comment:        strings.TrimSpace(req.Comment),
		ExpectedStatus: strings.TrimSpace(req.ExpectedStatus),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "订单状态流转不允许", nil)
		case errors.Is(err, service.ErrOrderStatusConflict):
			respondError(c, response.CodeConflict, "订单状态已被并发修改", nil)
		default:
			respondError(c, response.CodeInternal, "订单更新失败", err)
		}
		return
	}

	response.Success(c, order)
}

// GetOrderHistory 获取订单状态历史 (Admin)
func (h *Handler) GetOrderHistory(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	history, err := h.OrderService.GetStatusHistory(uint(orderID))
	if err != nil {
		respondError(c, response.CodeInternal, "订单历史查询失败", err)
		return
	}
	response.Success(c, history)
}
