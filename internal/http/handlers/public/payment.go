package public

import (
	"errors"
	"strconv"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// InitiatePayment 为待支付订单发起（或复用）网关支付
func (h *Handler) InitiatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	txn, err := h.PaymentService.InitiatePayment(uint(orderID), uid)
	if err != nil {
		respondPaymentInitiateError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transaction_no": txn.TransactionNo,
		"status":         txn.Status,
		"amount":         txn.Amount,
		"currency":       txn.Currency,
		"checkout_url":   txn.CheckoutURL,
		"qr_code":        txn.QRCode,
		"expired_at":     txn.ExpiredAt,
	})
}

// ListOrderPayments 获取订单支付流水
func (h *Handler) ListOrderPayments(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单标识无效", nil)
		return
	}

	// 校验订单归属，避免越权读取他人支付流水
	if _, err := h.OrderService.GetOrderByUser(uint(orderID), uid); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单查询失败", err)
		return
	}

	txns, err := h.PaymentService.ListByOrder(uint(orderID))
	if err != nil {
		respondError(c, response.CodeInternal, "支付流水查询失败", err)
		return
	}
	response.Success(c, txns)
}
