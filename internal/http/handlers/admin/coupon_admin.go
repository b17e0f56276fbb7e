package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCouponRequest 创建优惠券请求
type CreateCouponRequest struct {
	Code            string       `json:"code" binding:"required"`
	Type            string       `json:"type" binding:"required"`
	Value           models.Money `json:"value" binding:"required"`
	MinAmount       models.Money `json:"min_amount"`
	MaxDiscount     models.Money `json:"max_discount"`
	FreeShipping    bool         `json:"free_shipping"`
	UsageLimit      int          `json:"usage_limit"`
	PerUserLimit    int          `json:"per_user_limit"`
	EligibilityType string       `json:"eligibility_type"`
	EligibilityRef  string       `json:"eligibility_ref"`
	StartsAt        *time.Time   `json:"starts_at"`
	EndsAt          *time.Time   `json:"ends_at"`
	IsActive        bool         `json:"is_active"`
}

// CreateCoupon 创建优惠券 (Admin)
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	coupon, err := h.CouponService.Create(service.CreateCouponInput{
		Code:            req.Code,
		Type:            req.Type,
		Value:           req.Value,
		MinAmount:       req.MinAmount,
		MaxDiscount:     req.MaxDiscount,
		FreeShipping:    req.FreeShipping,
		UsageLimit:      req.UsageLimit,
		PerUserLimit:    req.PerUserLimit,
		EligibilityType: req.EligibilityType,
		EligibilityRef:  req.EligibilityRef,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrCouponCreateInvalid) {
			respondError(c, response.CodeBadRequest, "优惠券配置无效", nil)
			return
		}
		respondError(c, response.CodeInternal, "优惠券创建失败", err)
		return
	}

	response.Success(c, coupon)
}

// ListCoupons 获取优惠券列表 (Admin)
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.List(repository.CouponListFilter{
		Page:       page,
		PageSize:   pageSize,
		Code:       strings.TrimSpace(c.Query("code")),
		OnlyActive: c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "优惠券查询失败", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, coupons, pagination)
}

// SetCouponActive 启用/停用优惠券 (Admin)
func (h *Handler) SetCouponActive(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "优惠券标识无效", nil)
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	coupon, err := h.CouponService.SetActive(uint(couponID), req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "优惠券不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "优惠券更新失败", err)
		return
	}
	response.Success(c, coupon)
}
