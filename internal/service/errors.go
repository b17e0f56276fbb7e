package service

import "errors"

// 通用错误
var (
	ErrNotFound     = errors.New("记录不存在")
	ErrInvalidParam = errors.New("参数无效")
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("密码错误")
	ErrCaptchaRequired    = errors.New("需要验证码")
	ErrCaptchaInvalid     = errors.New("验证码错误")
	ErrPermissionDenied   = errors.New("没有操作权限")
)

// 订单相关错误
var (
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderFetchFailed      = errors.New("订单查询失败")
	ErrOrderCreateFailed     = errors.New("订单创建失败")
	ErrOrderUpdateFailed     = errors.New("订单更新失败")
	ErrOrderStatusInvalid    = errors.New("订单状态流转不允许")
	ErrOrderStatusConflict   = errors.New("订单状态已被并发修改")
	ErrOrderCancelNotAllowed = errors.New("订单当前状态不允许取消")
	ErrCartEmpty             = errors.New("购物车为空")
	ErrInvalidOrderItem      = errors.New("订单项无效")
	ErrInvalidOrderAmount    = errors.New("订单金额无效")
	ErrAddressInvalid        = errors.New("收货地址无效")
	ErrShippingMethodInvalid = errors.New("配送方式无效")
	ErrPaymentMethodInvalid  = errors.New("支付方式无效")
	ErrOrderNumberExhausted  = errors.New("订单号分配失败")
)

// 商品与库存相关错误
var (
	ErrProductNotAvailable = errors.New("商品不可售")
	ErrVariantNotFound     = errors.New("商品规格不存在")
	ErrStockInsufficient   = errors.New("库存不足")
	ErrWarehouseInvalid    = errors.New("仓库无效")
	ErrStockTxnInvalid     = errors.New("库存流水参数无效")
	ErrStockAlertNotFound  = errors.New("库存预警不存在")
	ErrStockAlertResolved  = errors.New("库存预警已处理")
)

// 优惠券相关错误
var (
	ErrCouponNotFound      = errors.New("优惠券不存在")
	ErrCouponInactive      = errors.New("优惠券未启用")
	ErrCouponNotStarted    = errors.New("优惠券未开始")
	ErrCouponExpired       = errors.New("优惠券已过期")
	ErrCouponExhausted     = errors.New("优惠券已领完")
	ErrCouponUserLimit     = errors.New("优惠券使用次数已达上限")
	ErrCouponMinAmount     = errors.New("未达到优惠券使用门槛")
	ErrCouponNotEligible   = errors.New("不符合优惠券使用条件")
	ErrCouponCreateInvalid = errors.New("优惠券配置无效")
)

// 支付相关错误
var (
	ErrPaymentNotFound        = errors.New("支付流水不存在")
	ErrPaymentCreateFailed    = errors.New("支付单创建失败")
	ErrPaymentGatewayFailed   = errors.New("支付网关请求失败")
	ErrPaymentStatusConflict  = errors.New("支付状态已被并发修改")
	ErrPaymentNotRefundable   = errors.New("当前支付状态不允许退款")
	ErrRefundAmountInvalid    = errors.New("退款金额无效")
	ErrRefundExceedsRemaining = errors.New("退款金额超过可退余额")
	ErrRefundExceedsLimit     = errors.New("退款金额超过操作员限额")
	ErrWebhookSignature       = errors.New("回调签名校验失败")
	ErrWebhookPayloadInvalid  = errors.New("回调报文无效")
)

// 邮件相关错误
var (
	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrInvalidEmail              = errors.New("邮箱地址无效")
	ErrEmailRecipientRejected    = errors.New("收件地址被拒绝")
)

// 队列相关错误
var (
	ErrQueueUnavailable = errors.New("队列服务不可用")
)

// 限时抢购相关错误
var (
	ErrFlashSaleNotFound = errors.New("限时抢购活动不存在")
	ErrFlashSaleInvalid  = errors.New("限时抢购配置无效")
	ErrFlashSaleSoldOut  = errors.New("限时抢购名额已用完")
)
