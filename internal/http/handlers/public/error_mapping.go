package public

import (
	"errors"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "优惠券不存在"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "优惠券未启用"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, msg: "优惠券未开始"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "优惠券已过期"},
	{target: service.ErrCouponExhausted, code: response.CodeBadRequest, msg: "优惠券已领完"},
	{target: service.ErrCouponUserLimit, code: response.CodeBadRequest, msg: "优惠券使用次数已达上限"},
	{target: service.ErrCouponMinAmount, code: response.CodeBadRequest, msg: "未达到优惠券使用门槛"},
	{target: service.ErrCouponNotEligible, code: response.CodeBadRequest, msg: "不符合优惠券使用条件"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "购物车为空"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "订单项无效"},
	{target: service.ErrInvalidOrderAmount, code: response.CodeBadRequest, msg: "订单金额无效"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品不可售"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "商品规格不存在"},
	{target: service.ErrStockInsufficient, code: response.CodeConflict, msg: "库存不足"},
	{target: service.ErrAddressInvalid, code: response.CodeBadRequest, msg: "收货地址无效"},
	{target: service.ErrShippingMethodInvalid, code: response.CodeBadRequest, msg: "配送方式无效"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "支付方式无效"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeInternal, msg: "支付网关请求失败, 请稍后重试"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "商品规格不存在"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品不可售"},
	{target: service.ErrStockInsufficient, code: response.CodeConflict, msg: "库存不足"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "购物车项不存在"},
	{target: service.ErrInvalidParam, code: response.CodeBadRequest, msg: "参数无效"},
}

var paymentInitiateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrPaymentStatusConflict, code: response.CodeConflict, msg: "订单当前状态不允许发起支付"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "支付方式不支持在线支付"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeInternal, msg: "支付网关请求失败, 请稍后重试"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCreateErrorRules, couponErrorRules), response.CodeInternal, "订单创建失败")
}

func respondPaymentInitiateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentInitiateErrorRules, response.CodeInternal, "发起支付失败")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "购物车操作失败")
}
