package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shopnext/internal/config"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/logger"
	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加仓库
	warehouses := []models.Warehouse{
		{Code: "WH-MAIN", Name: "主仓", Location: "胡志明市 7 郡", IsActive: true},
		{Code: "WH-NORTH", Name: "北区仓", Location: "河内市龙边郡", IsActive: true},
	}
	warehouseIDs := map[string]uint{}
	for _, wh := range warehouses {
		var existing models.Warehouse
		if err := models.DB.Where("code = ?", wh.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&wh).Error; err != nil {
				stdLog.Printf("Failed to create warehouse %s: %v", wh.Code, err)
				continue
			}
			stdLog.Printf("Created warehouse: %s", wh.Code)
			warehouseIDs[wh.Code] = wh.ID
		} else {
			stdLog.Printf("Warehouse already exists: %s", wh.Code)
			warehouseIDs[wh.Code] = existing.ID
		}
	}
	mainWarehouseID := warehouseIDs["WH-MAIN"]
	northWarehouseID := warehouseIDs["WH-NORTH"]

	// 添加配送方式
	shippingMethods := []models.ShippingMethod{
		{Code: "standard", Name: "标准快递 (3-5 天)", BaseCost: models.NewMoneyFromInt(30000), IsActive: true},
		{Code: "express", Name: "当日/次日达", BaseCost: models.NewMoneyFromInt(60000), IsActive: true},
	}
	for _, sm := range shippingMethods {
		var existing models.ShippingMethod
		if err := models.DB.Where("code = ?", sm.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&sm).Error; err != nil {
				stdLog.Printf("Failed to create shipping method %s: %v", sm.Code, err)
			} else {
				stdLog.Printf("Created shipping method: %s", sm.Code)
			}
		} else {
			existing.Name = sm.Name
			existing.BaseCost = sm.BaseCost
			existing.IsActive = sm.IsActive
			if err := models.DB.Save(&existing).Error; err != nil {
				stdLog.Printf("Failed to update shipping method %s: %v", sm.Code, err)
			} else {
				stdLog.Printf("Updated shipping method: %s", sm.Code)
			}
		}
	}

	// 添加支付方式
	paymentMethods := []models.PaymentMethod{
		{Code: constants.PaymentMethodCashOnDelivery, Name: "货到付款", IsActive: true},
		{Code: constants.PaymentMethodBankTransfer, Name: "银行转账 (PayOS)", IsActive: true},
	}
	for _, pm := range paymentMethods {
		var existing models.PaymentMethod
		if err := models.DB.Where("code = ?", pm.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&pm).Error; err != nil {
				stdLog.Printf("Failed to create payment method %s: %v", pm.Code, err)
			} else {
				stdLog.Printf("Created payment method: %s", pm.Code)
			}
		} else {
			stdLog.Printf("Payment method already exists: %s", pm.Code)
		}
	}

	// 添加演示用户
	users := []models.User{
		{Email: "demo@shopnext.dev", Name: "演示用户", Phone: "0901234567", Tier: "gold", IsActive: true},
		{Email: "buyer@shopnext.dev", Name: "普通买家", Phone: "0907654321", Tier: "", IsActive: true},
	}
	for _, u := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", u.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&u).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", u.Email, err)
			} else {
				stdLog.Printf("Created user: %s", u.Email)
			}
		} else {
			stdLog.Printf("User already exists: %s", u.Email)
		}
	}

	// 添加商品与规格
	type variantSeed struct {
		SKU   string
		Color string
		Size  string
		// 各仓初始入库数量
		MainQty  int
		NorthQty int
	}
	type productSeed struct {
		Slug      string
		Name      string
		BasePrice int64
		SalePrice int64 // 0 表示无促销价
		Variants  []variantSeed
	}

	productSeeds := []productSeed{
		{
			Slug:      "classic-cotton-tee",
			Name:      "经典纯棉 T 恤",
			BasePrice: 150000,
			Variants: []variantSeed{
				{SKU: "TEE-BLK-M", Color: "黑色", Size: "M", MainQty: 40, NorthQty: 20},
				{SKU: "TEE-BLK-L", Color: "黑色", Size: "L", MainQty: 35, NorthQty: 15},
				{SKU: "TEE-WHT-M", Color: "白色", Size: "M", MainQty: 50, NorthQty: 25},
			},
		},
		{
			Slug:      "urban-running-shoes",
			Name:      "城市轻量跑鞋",
			BasePrice: 890000,
			SalePrice: 690000,
			Variants: []variantSeed{
				{SKU: "SHOE-GRY-41", Color: "灰色", Size: "41", MainQty: 12, NorthQty: 6},
				{SKU: "SHOE-GRY-42", Color: "灰色", Size: "42", MainQty: 10, NorthQty: 8},
				{SKU: "SHOE-BLU-42", Color: "蓝色", Size: "42", MainQty: 8, NorthQty: 0},
			},
		},
		{
			Slug:      "commuter-backpack",
			Name:      "通勤防水背包",
			BasePrice: 450000,
			Variants: []variantSeed{
				{SKU: "BAG-BLK-STD", Color: "黑色", Size: "标准", MainQty: 25, NorthQty: 10},
			},
		},
		{
			Slug:      "demo-last-unit",
			Name:      "演示商品（仅剩最后一件）",
			BasePrice: 99000,
			Variants: []variantSeed{
				{SKU: "DEMO-LAST-1", Color: "默认", Size: "均码", MainQty: 1, NorthQty: 0},
			},
		},
	}

	for _, ps := range productSeeds {
		var product models.Product
		if err := models.DB.Where("slug = ?", ps.Slug).First(&product).Error; err != nil {
			product = models.Product{
				Slug:      ps.Slug,
				Name:      ps.Name,
				BasePrice: models.NewMoneyFromInt(ps.BasePrice),
				IsActive:  true,
			}
			if ps.SalePrice > 0 {
				sale := models.NewMoneyFromInt(ps.SalePrice)
				product.SalePrice = &sale
			}
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", ps.Slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", ps.Slug)
		} else {
			stdLog.Printf("Product already exists: %s", ps.Slug)
		}

		for _, vs := range ps.Variants {
			var variant models.ProductVariant
			if err := models.DB.Where("sku = ?", vs.SKU).First(&variant).Error; err != nil {
				variant = models.ProductVariant{
					ProductID:     product.ID,
					SKU:           vs.SKU,
					Color:         vs.Color,
					Size:          vs.Size,
					StockQuantity: vs.MainQty + vs.NorthQty,
					IsActive:      true,
				}
				if err := models.DB.Create(&variant).Error; err != nil {
					stdLog.Printf("Failed to create variant %s: %v", vs.SKU, err)
					continue
				}
				stdLog.Printf("Created variant: %s", vs.SKU)
			} else {
				stdLog.Printf("Variant already exists: %s", vs.SKU)
				continue
			}

			// 初始分仓库存 + 对应入库流水
			seedStock(stdLog, variant.ID, mainWarehouseID, vs.MainQty, vs.SKU)
			seedStock(stdLog, variant.ID, northWarehouseID, vs.NorthQty, vs.SKU)
		}
	}

	// 添加演示优惠券
	now := time.Now()
	couponEnd := now.AddDate(0, 3, 0)
	coupons := []models.Coupon{
		{
			Code:            "WELCOME10",
			Type:            constants.CouponTypePercent,
			Value:           models.NewMoneyFromInt(10),
			MinAmount:       models.NewMoneyFromInt(200000),
			MaxDiscount:     models.NewMoneyFromInt(100000),
			UsageLimit:      0,
			PerUserLimit:    1,
			EligibilityType: constants.CouponEligibilityAll,
			EndsAt:          &couponEnd,
			IsActive:        true,
		},
		{
			Code:            "FREESHIP",
			Type:            constants.CouponTypeFixed,
			Value:           models.NewMoneyFromInt(0),
			FreeShipping:    true,
			UsageLimit:      100,
			PerUserLimit:    2,
			EligibilityType: constants.CouponEligibilityAll,
			EndsAt:          &couponEnd,
			IsActive:        true,
		},
		{
			Code:            "GOLD50K",
			Type:            constants.CouponTypeFixed,
			Value:           models.NewMoneyFromInt(50000),
			MinAmount:       models.NewMoneyFromInt(300000),
			UsageLimit:      0,
			PerUserLimit:    1,
			EligibilityType: constants.CouponEligibilityTier,
			EligibilityRef:  "gold",
			EndsAt:          &couponEnd,
			IsActive:        true,
		},
	}
	for _, cp := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", cp.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cp).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", cp.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", cp.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", cp.Code)
		}
	}

	// 更新商店配置
	shopConfig := map[string]interface{}{
		constants.SettingFieldFreeShippingThreshold: 500000,
		constants.SettingFieldLowStockThreshold:     5,
		constants.SettingFieldRefundAdminCeiling:    5000000,
		constants.SettingFieldPaymentExpireMinutes:  30,
	}

	var setting models.Setting
	if err := models.DB.Where("key = ?", constants.SettingKeyShopConfig).First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       constants.SettingKeyShopConfig,
			ValueJSON: models.JSON(shopConfig),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create shop config: %v", err)
		} else {
			stdLog.Println("Created shop config")
		}
	} else {
		setting.ValueJSON = models.JSON(shopConfig)
		if err := models.DB.Save(&setting).Error; err != nil {
			stdLog.Printf("Failed to update shop config: %v", err)
		} else {
			stdLog.Println("Updated shop config")
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 2 Warehouses")
	fmt.Println("- 2 Shipping methods")
	fmt.Println("- 2 Payment methods (cod + bank_transfer)")
	fmt.Println("- 2 Demo users")
	fmt.Println("- 4 Products with variants, per-warehouse stock and import ledger rows")
	fmt.Println("- 3 Coupons (WELCOME10 / FREESHIP / GOLD50K)")
	fmt.Println("- Shop configuration")
}

// seedStock 写入单仓初始库存与对应的入库流水。
// 流水与库存行同事务写入，保证账实一致。
func seedStock(stdLog *log.Logger, variantID, warehouseID uint, qty int, sku string) {
	if warehouseID == 0 || qty <= 0 {
		return
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		stock := models.VariantStock{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Quantity:    qty,
			Reserved:    0,
		}
		if err := tx.Create(&stock).Error; err != nil {
			return err
		}
		txn := models.InventoryTransaction{
			VariantID:    variantID,
			WarehouseID:  warehouseID,
			Type:         constants.InventoryTxnTypeImport,
			Quantity:     qty,
			BalanceAfter: qty,
			Reference:    fmt.Sprintf("seed-%s", sku),
			Note:         "初始化入库",
			ActorID:      0,
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		stdLog.Printf("Failed to seed stock for variant %d warehouse %d: %v", variantID, warehouseID, err)
		return
	}
	stdLog.Printf("Seeded stock: variant=%d warehouse=%d qty=%d", variantID, warehouseID, qty)
}
