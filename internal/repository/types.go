package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// PaymentListFilter 查询支付流水列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	Method      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InventoryTxnListFilter 查询库存流水列表的过滤条件
type InventoryTxnListFilter struct {
	Page        int
	PageSize    int
	VariantID   uint
	WarehouseID uint
	Type        string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// StockAlertListFilter 查询库存预警列表的过滤条件
type StockAlertListFilter struct {
	Page         int
	PageSize     int
	VariantID    uint
	AlertType    string
	OnlyUnsolved bool
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page       int
	PageSize   int
	Code       string
	OnlyActive bool
}
