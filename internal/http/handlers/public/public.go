package public

import (
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取结账页所需的全局配置
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data := map[string]interface{}{
		"currency":         constants.SiteCurrencyDefault,
		"tax_rate_percent": constants.OrderTaxRatePercent,
	}

	threshold, err := h.SettingService.GetFreeShippingThreshold(models.NewMoneyFromInt(500000))
	if err != nil {
		respondError(c, response.CodeInternal, "配置查询失败", err)
		return
	}
	data["free_shipping_threshold"] = threshold

	shippingMethods, err := h.ShippingMethodRepo.ListEnabled()
	if err != nil {
		respondError(c, response.CodeInternal, "配置查询失败", err)
		return
	}
	data["shipping_methods"] = shippingMethods

	paymentMethods, err := h.PaymentMethodRepo.ListEnabled()
	if err != nil {
		respondError(c, response.CodeInternal, "配置查询失败", err)
		return
	}
	data["payment_methods"] = paymentMethods

	if h.CaptchaService != nil {
		data["captcha_enabled"] = h.CaptchaService.Enabled()
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}
