package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"

	"github.com/shopspring/decimal"
)

func (env *testEnv) seedCoupon(t *testing.T, coupon models.Coupon) *models.Coupon {
	t.Helper()
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func TestEvaluateCouponRejections(t *testing.T) {
	env := setupServiceTest(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	user := &models.User{Email: "eval@test.dev", Tier: "silver", IsActive: true}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	env.seedCoupon(t, models.Coupon{Code: "INACTIVE", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), IsActive: false})
	env.seedCoupon(t, models.Coupon{Code: "NOTYET", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), StartsAt: &future, IsActive: true})
	env.seedCoupon(t, models.Coupon{Code: "EXPIRED", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), EndsAt: &past, IsActive: true})
	env.seedCoupon(t, models.Coupon{Code: "USEDUP", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), UsageLimit: 2, UsedCount: 2, IsActive: true})
	env.seedCoupon(t, models.Coupon{Code: "GOLDONLY", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), EligibilityType: constants.CouponEligibilityTier, EligibilityRef: "gold", IsActive: true})
	env.seedCoupon(t, models.Coupon{Code: "BIGSPEND", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(1000), MinAmount: models.NewMoneyFromInt(500000), IsActive: true})

	subtotal := models.NewMoneyFromInt(100000)
	cases := []struct {
		code string
		want error
	}{
		{"MISSING", ErrCouponNotFound},
		{"", ErrCouponNotFound},
		{"INACTIVE", ErrCouponInactive},
		{"NOTYET", ErrCouponNotStarted},
		{"EXPIRED", ErrCouponExpired},
		{"USEDUP", ErrCouponExhausted},
		{"GOLDONLY", ErrCouponNotEligible},
		{"BIGSPEND", ErrCouponMinAmount},
	}
	for _, c := range cases {
		if _, err := env.couponService.Evaluate(c.code, user, subtotal, now); !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v, got %v", c.code, c.want, err)
		}
	}
}

func TestEvaluateCouponTierCaseInsensitive(t *testing.T) {
	env := setupServiceTest(t)
	user := &models.User{Email: "gold@test.dev", Tier: "Gold", IsActive: true}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	env.seedCoupon(t, models.Coupon{Code: "GOLD50", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(50000), EligibilityType: constants.CouponEligibilityTier, EligibilityRef: "gold", IsActive: true})

	eval, err := env.couponService.Evaluate("GOLD50", user, models.NewMoneyFromInt(300000), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !eval.Discount.Decimal.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("discount want 50000, got %s", eval.Discount.String())
	}
}

func TestEvaluateCouponPercentCaps(t *testing.T) {
	env := setupServiceTest(t)
	user := &models.User{Email: "pct@test.dev", IsActive: true}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	env.seedCoupon(t, models.Coupon{Code: "PCT20", Type: constants.CouponTypePercent, Value: models.NewMoneyFromInt(20), MaxDiscount: models.NewMoneyFromInt(30000), IsActive: true})

	// 20% of 100000 = 20000，未触顶
	eval, err := env.couponService.Evaluate("PCT20", user, models.NewMoneyFromInt(100000), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !eval.Discount.Decimal.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("discount want 20000, got %s", eval.Discount.String())
	}

	// 20% of 400000 = 80000，被 max_discount 封到 30000
	eval, err = env.couponService.Evaluate("PCT20", user, models.NewMoneyFromInt(400000), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !eval.Discount.Decimal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("capped discount want 30000, got %s", eval.Discount.String())
	}
}

func TestEvaluateCouponFixedCappedAtSubtotal(t *testing.T) {
	env := setupServiceTest(t)
	user := &models.User{Email: "fixed@test.dev", IsActive: true}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	env.seedCoupon(t, models.Coupon{Code: "BIG", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(200000), IsActive: true})

	eval, err := env.couponService.Evaluate("BIG", user, models.NewMoneyFromInt(80000), time.Now())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	// 固定金额不把小计打成负数
	if !eval.Discount.Decimal.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("discount want 80000, got %s", eval.Discount.String())
	}
}

func TestEvaluateCouponPerUserLimit(t *testing.T) {
	env := setupServiceTest(t)
	user, addrID := env.seedCheckoutBasics(t)
	variant := env.seedVariant(t, 100000, 10)
	env.seedCoupon(t, models.Coupon{Code: "ONCE", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(5000), PerUserLimit: 1, IsActive: true})
	env.addToCart(t, user.ID, variant, 1)

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:           user.ID,
		ShippingMethodID: 1,
		PaymentMethod:    constants.PaymentMethodCashOnDelivery,
		AddressID:        addrID,
		CouponCode:       "ONCE",
	}); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	if _, err := env.couponService.Evaluate("ONCE", user, models.NewMoneyFromInt(100000), time.Now()); !errors.Is(err, ErrCouponUserLimit) {
		t.Fatalf("expected per-user limit, got: %v", err)
	}

	// 其他用户不受影响
	other := &models.User{Email: "other@test.dev", IsActive: true}
	if err := env.db.Create(other).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if _, err := env.couponService.Evaluate("ONCE", other, models.NewMoneyFromInt(100000), time.Now()); err != nil {
		t.Fatalf("other user evaluate failed: %v", err)
	}
}

func TestApplyUsageExhaustsAtLimit(t *testing.T) {
	env := setupServiceTest(t)
	coupon := env.seedCoupon(t, models.Coupon{Code: "LIMIT1", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(5000), UsageLimit: 1, IsActive: true})

	if err := env.couponService.ApplyUsage(env.db, coupon, 101, models.NewMoneyFromInt(5000), false); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := env.couponService.ApplyUsage(env.db, coupon, 102, models.NewMoneyFromInt(5000), false); !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected exhausted, got: %v", err)
	}

	var reloaded models.Coupon
	if err := env.db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("used count want 1, got %d", reloaded.UsedCount)
	}
}

func TestReleaseUsageIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	coupon := env.seedCoupon(t, models.Coupon{Code: "REL", Type: constants.CouponTypeFixed, Value: models.NewMoneyFromInt(5000), UsageLimit: 10, IsActive: true})

	if err := env.couponService.ApplyUsage(env.db, coupon, 201, models.NewMoneyFromInt(5000), false); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := env.couponService.ReleaseUsage(env.db, 201); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	// 重复释放与未占用释放都是安静成功
	if err := env.couponService.ReleaseUsage(env.db, 201); err != nil {
		t.Fatalf("second release failed: %v", err)
	}
	if err := env.couponService.ReleaseUsage(env.db, 999); err != nil {
		t.Fatalf("release for unknown order failed: %v", err)
	}

	var reloaded models.Coupon
	if err := env.db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Fatalf("used count want 0, got %d", reloaded.UsedCount)
	}
}
