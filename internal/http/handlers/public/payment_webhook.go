package public

import (
	"errors"
	"net/http"

	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// PayOSWebhook 接收 PayOS 网关回调。
// 网关依据 HTTP 状态码判断是否重试，签名或报文错误直接拒绝，
// 内部处理失败返回 5xx 让网关稍后重发。
func (h *Handler) PayOSWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	if err := h.PaymentService.HandleWebhook(c.Request.Context(), body); err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookPayloadInvalid), errors.Is(err, service.ErrWebhookSignature):
			c.JSON(http.StatusBadRequest, gin.H{"success": false})
		default:
			requestLog(c).Errorw("payment_webhook_handle_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
