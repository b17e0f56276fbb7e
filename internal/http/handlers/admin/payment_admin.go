package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// ListPayments 获取支付流水列表 (Admin)
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)

	txns, total, err := h.PaymentService.ListAdmin(repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderID:  uint(orderID),
		Method:   strings.TrimSpace(c.Query("method")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "支付流水查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, txns, pagination)
}

// GetPayment 获取支付流水详情 (Admin)
func (h *Handler) GetPayment(c *gin.Context) {
	txnID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || txnID == 0 {
		respondError(c, response.CodeBadRequest, "支付流水标识无效", nil)
		return
	}

	txn, err := h.PaymentService.GetTransaction(uint(txnID))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, response.CodeNotFound, "支付流水不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "支付流水查询失败", err)
		return
	}
	response.Success(c, txn)
}

// RefundRequest 退款请求
type RefundRequest struct {
	Amount models.Money `json:"amount" binding:"required"`
	Reason string       `json:"reason" binding:"required"`
}

// RefundPayment 对已支付流水执行退款 (Admin)
func (h *Handler) RefundPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	txnID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || txnID == 0 {
		respondError(c, response.CodeBadRequest, "支付流水标识无效", nil)
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	txn, err := h.PaymentService.Refund(service.RefundInput{
		TransactionID: uint(txnID),
		Amount:        req.Amount,
		AdminID:       adminID,
		Reason:        strings.TrimSpace(req.Reason),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			respondError(c, response.CodeNotFound, "支付流水不存在", nil)
		case errors.Is(err, service.ErrRefundAmountInvalid):
			respondError(c, response.CodeBadRequest, "退款金额无效", nil)
		case errors.Is(err, service.ErrPaymentNotRefundable):
			respondError(c, response.CodeBadRequest, "当前支付状态不允许退款", nil)
		case errors.Is(err, service.ErrRefundExceedsRemaining):
			respondError(c, response.CodeBadRequest, "退款金额超过可退余额", nil)
		case errors.Is(err, service.ErrRefundExceedsLimit):
			respondError(c, response.CodeForbidden, "退款金额超过操作员限额", nil)
		case errors.Is(err, service.ErrPermissionDenied):
			respondError(c, response.CodeForbidden, "没有操作权限", nil)
		case errors.Is(err, service.ErrPaymentStatusConflict):
			respondError(c, response.CodeConflict, "支付状态已被并发修改", nil)
		case errors.Is(err, service.ErrOrderStatusConflict):
			respondError(c, response.CodeConflict, "订单状态已被并发修改", nil)
		default:
			respondError(c, response.CodeInternal, "退款失败", err)
		}
		return
	}

	requestLog(c).Infow("payment_refund_executed",
		"transaction_id", txn.ID,
		"admin_id", adminID,
		"amount", req.Amount.String())
	response.Success(c, txn)
}
