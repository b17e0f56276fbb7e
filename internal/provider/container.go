package provider

import (
	"github.com/shopnext/internal/authz"
	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"
	"github.com/shopnext/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	OrderRepo          repository.OrderRepository
	OrderHistoryRepo   repository.OrderStatusHistoryRepository
	OrderSequenceRepo  repository.OrderSequenceRepository
	PaymentTxnRepo     repository.PaymentTransactionRepository
	ProductRepo        repository.ProductRepository
	VariantStockRepo   repository.VariantStockRepository
	InventoryTxnRepo   repository.InventoryTransactionRepository
	StockAlertRepo     repository.StockAlertRepository
	WarehouseRepo      repository.WarehouseRepository
	CartRepo           repository.CartRepository
	CouponRepo         repository.CouponRepository
	OrderCouponRepo    repository.OrderCouponRepository
	FlashSaleRepo      repository.FlashSaleRepository
	SettingRepo        repository.SettingRepository
	ShippingMethodRepo repository.ShippingMethodRepository
	PaymentMethodRepo  repository.PaymentMethodRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	CaptchaService   *service.CaptchaService
	EmailService     *service.EmailService
	SettingService   *service.SettingService
	FlashSaleService *service.FlashSaleService
	CouponService    *service.CouponService
	StockService     *service.StockService
	CartService      *service.CartService
	PaymentService   *service.PaymentService
	OrderService     *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderHistoryRepo = repository.NewOrderStatusHistoryRepository(db)
	c.OrderSequenceRepo = repository.NewOrderSequenceRepository(db)
	c.PaymentTxnRepo = repository.NewPaymentTransactionRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantStockRepo = repository.NewVariantStockRepository(db)
	c.InventoryTxnRepo = repository.NewInventoryTransactionRepository(db)
	c.StockAlertRepo = repository.NewStockAlertRepository(db)
	c.WarehouseRepo = repository.NewWarehouseRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.OrderCouponRepo = repository.NewOrderCouponRepository(db)
	c.FlashSaleRepo = repository.NewFlashSaleRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.ShippingMethodRepo = repository.NewShippingMethodRepository(db)
	c.PaymentMethodRepo = repository.NewPaymentMethodRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo, c.QueueClient)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.UserRepo, c.CaptchaService)
	c.FlashSaleService = service.NewFlashSaleService(c.FlashSaleRepo, c.QueueClient)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.OrderCouponRepo, c.UserRepo, c.QueueClient)
	c.StockService = service.NewStockService(c.ProductRepo, c.VariantStockRepo, c.InventoryTxnRepo, c.StockAlertRepo, c.WarehouseRepo, c.SettingService)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.FlashSaleService)
	c.PaymentService = service.NewPaymentService(c.PaymentTxnRepo, c.OrderRepo, c.OrderHistoryRepo, c.CartRepo, c.AdminRepo, c.StockService, c.CouponService, c.SettingService, c.QueueClient, c.Config.Gateway)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.OrderHistoryRepo, c.OrderSequenceRepo, c.ProductRepo, c.CartRepo, c.UserRepo, c.ShippingMethodRepo, c.PaymentMethodRepo, c.CouponService, c.FlashSaleService, c.StockService, c.PaymentService, c.SettingService, c.QueueClient, c.Config.Order)
}
