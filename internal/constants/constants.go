package constants

// 订单状态常量
const (
	OrderStatusPending         = "pending"
	OrderStatusConfirmed       = "confirmed"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusDelivered       = "delivered"
	OrderStatusReturnRequested = "return_requested"
	OrderStatusCompleted       = "completed"
	OrderStatusCancelled       = "cancelled"
	OrderStatusRefunded        = "refunded"
	OrderStatusPartialRefunded = "partial_refunded"
)

// 订单支付状态常量
const (
	OrderPaymentStatusUnpaid          = "unpaid"
	OrderPaymentStatusPaid            = "paid"
	OrderPaymentStatusFailed          = "failed"
	OrderPaymentStatusRefunded        = "refunded"
	OrderPaymentStatusPartialRefunded = "partial_refunded"
)

// 支付流水状态常量
const (
	PaymentStatusPending         = "pending"
	PaymentStatusPaid            = "paid"
	PaymentStatusFailed          = "failed"
	PaymentStatusCancelled       = "cancelled"
	PaymentStatusPartialRefunded = "partial_refunded"
	PaymentStatusRefunded        = "refunded"
)

// 支付方式常量
const (
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cod"
)

// 库存流水类型常量
const (
	InventoryTxnTypeImport      = "import"
	InventoryTxnTypeSale        = "sale"
	InventoryTxnTypeReturn      = "return"
	InventoryTxnTypeDamaged     = "damaged"
	InventoryTxnTypeAdjustment  = "adjustment"
	InventoryTxnTypeTransferIn  = "transfer_in"
	InventoryTxnTypeTransferOut = "transfer_out"
)

// 库存预警类型常量
const (
	StockAlertTypeLowStock   = "low_stock"
	StockAlertTypeOutOfStock = "out_of_stock"
)

// 免运费原因常量
const (
	FreeShippingReasonOrderThreshold = "order_threshold"
	FreeShippingReasonCoupon         = "coupon"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 优惠券适用人群常量
const (
	CouponEligibilityAll  = "all"
	CouponEligibilityTier = "tier"
	CouponEligibilityUser = "user"
)

// 状态流转操作者类型常量
const (
	StatusActorSystem   = "system"
	StatusActorCustomer = "customer"
	StatusActorAdmin    = "admin"
	StatusActorGateway  = "gateway"
)

// 网关回调常量
const (
	GatewayWebhookCodeSuccess = "00"
	GatewayStatusPaid         = "PAID"
	GatewayStatusCancelled    = "CANCELLED"
	GatewayStatusExpired      = "EXPIRED"
	GatewayStatusPending      = "PENDING"
)

// 队列常量
const (
	QueueDefault         = "default"
	TaskOrderStatusEmail = "order:status_email"
	TaskPaymentExpire    = "payment:expire"
	TaskCacheInvalidate  = "cache:invalidate"
)

// 缓存命名空间常量
const (
	CacheNamespaceCoupon    = "coupon"
	CacheNamespaceFlashSale = "flash_sale"
	CacheNamespaceCatalog   = "catalog"
	CacheNamespaceSetting   = "setting"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sn"
)

// 设置键常量
const (
	SettingKeyShopConfig              = "shop_config"
	SettingFieldFreeShippingThreshold = "free_shipping_threshold"
	SettingFieldLowStockThreshold     = "low_stock_threshold"
	SettingFieldRefundAdminCeiling    = "refund_admin_ceiling"
	SettingFieldPaymentExpireMinutes  = "payment_expire_minutes"
)

// 币种常量
const (
	SiteCurrencyDefault = "VND"
)

// 下单税率常量（下单路径固定 10%）
const (
	OrderTaxRatePercent = 10
)
