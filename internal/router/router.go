package router

import (
	"fmt"
	"strings"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	adminhandlers "github.com/shopnext/internal/http/handlers/admin"
	publichandlers "github.com/shopnext/internal/http/handlers/public"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxAttempts,
		Message:       "回调请求过于频繁",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
		}

		// 网关回调（按来源 IP 限流，响应语义由网关协议决定）
		apiV1.POST("/payments/webhook/payos", RateLimitMiddleware(redisClient, webhookRule, KeyByIP), publicHandler.PayOSWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", publicHandler.ListCartItems)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:variant_id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:variant_id", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/payments", publicHandler.InitiatePayment)
			user.GET("/orders/:id/payments", publicHandler.ListOrderPayments)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.GET("/captcha", adminHandler.GetCaptcha)
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.Me)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
				authorized.GET("/orders/:id/history", adminHandler.GetOrderHistory)

				// 库存管理
				authorized.POST("/stock/transactions", adminHandler.CreateStockTransaction)
				authorized.GET("/stock/transactions", adminHandler.ListStockTransactions)
				authorized.POST("/stock/transfers", adminHandler.TransferStock)
				authorized.GET("/stock/variants/:id", adminHandler.ListVariantStocks)
				authorized.GET("/stock/alerts", adminHandler.ListStockAlerts)
				authorized.POST("/stock/alerts/:id/resolve", adminHandler.ResolveStockAlert)
				authorized.GET("/warehouses", adminHandler.ListWarehouses)

				// 支付与退款
				authorized.GET("/payments", adminHandler.ListPayments)
				authorized.GET("/payments/:id", adminHandler.GetPayment)
				authorized.POST("/payments/:id/refund", adminHandler.RefundPayment)

				// 营销
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.GET("/coupons", adminHandler.ListCoupons)
				authorized.PATCH("/coupons/:id/active", adminHandler.SetCouponActive)
				authorized.POST("/flash-sales", adminHandler.CreateFlashSale)
				authorized.GET("/flash-sales", adminHandler.ListFlashSales)
				authorized.PATCH("/flash-sales/:id/active", adminHandler.SetFlashSaleActive)

				// 系统配置
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查与指标
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", MetricsHandler())

	return r
}
