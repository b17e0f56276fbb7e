package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopnext/internal/cache"
	"github.com/shopnext/internal/constants"
	"github.com/shopnext/internal/models"
	"github.com/shopnext/internal/queue"
	"github.com/shopnext/internal/repository"

	"github.com/shopspring/decimal"
)

const settingCacheTTL = 5 * time.Minute

// SettingService 设置业务服务
type SettingService struct {
	repo        repository.SettingRepository
	queueClient *queue.Client
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository, queueClient *queue.Client) *SettingService {
	return &SettingService{repo: repo, queueClient: queueClient}
}

// GetByKey 获取设置（带缓存）
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	cacheKey := constants.CacheNamespaceSetting + ":" + key
	var cached models.JSON
	if ok, _ := cache.GetJSON(context.Background(), cacheKey, &cached); ok {
		return cached, nil
	}

	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	_ = cache.SetJSON(context.Background(), cacheKey, setting.ValueJSON, settingCacheTTL)
	return setting.ValueJSON, nil
}

// Update 设置值并广播缓存失效
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	setting := &models.Setting{
		Key:       key,
		ValueJSON: models.JSON(value),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.Upsert(setting); err != nil {
		return nil, err
	}
	_ = cache.Del(context.Background(), constants.CacheNamespaceSetting+":"+key)
	if s.queueClient != nil {
		_ = s.queueClient.EnqueueCacheInvalidate(queue.CacheInvalidatePayload{
			Namespace: constants.CacheNamespaceSetting,
			Reason:    "setting_updated:" + key,
		})
	}
	return setting.ValueJSON, nil
}

// GetFreeShippingThreshold 获取免运费门槛金额
func (s *SettingService) GetFreeShippingThreshold(defaultValue models.Money) (models.Money, error) {
	raw, err := s.shopConfigField(constants.SettingFieldFreeShippingThreshold)
	if err != nil || raw == nil {
		return defaultValue, err
	}
	amount, parseErr := parseSettingDecimal(raw)
	if parseErr != nil || amount.LessThanOrEqual(decimal.Zero) {
		return defaultValue, nil
	}
	return models.NewMoneyFromDecimal(amount), nil
}

// GetLowStockThreshold 获取低库存预警阈值
func (s *SettingService) GetLowStockThreshold(defaultValue int) (int, error) {
	raw, err := s.shopConfigField(constants.SettingFieldLowStockThreshold)
	if err != nil || raw == nil {
		return defaultValue, err
	}
	threshold, parseErr := parseSettingInt(raw)
	if parseErr != nil || threshold <= 0 {
		return defaultValue, nil
	}
	return threshold, nil
}

// GetRefundAdminCeiling 获取普通管理员单笔退款上限
func (s *SettingService) GetRefundAdminCeiling(defaultValue models.Money) (models.Money, error) {
	raw, err := s.shopConfigField(constants.SettingFieldRefundAdminCeiling)
	if err != nil || raw == nil {
		return defaultValue, err
	}
	amount, parseErr := parseSettingDecimal(raw)
	if parseErr != nil || amount.LessThan(decimal.Zero) {
		return defaultValue, nil
	}
	return models.NewMoneyFromDecimal(amount), nil
}

// GetPaymentExpireMinutes 获取支付单超时分钟配置
func (s *SettingService) GetPaymentExpireMinutes(defaultValue int) (int, error) {
	raw, err := s.shopConfigField(constants.SettingFieldPaymentExpireMinutes)
	if err != nil || raw == nil {
		return defaultValue, err
	}
	minutes, parseErr := parseSettingInt(raw)
	if parseErr != nil || minutes <= 0 {
		return defaultValue, nil
	}
	return minutes, nil
}

func (s *SettingService) shopConfigField(field string) (interface{}, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	value, err := s.GetByKey(constants.SettingKeyShopConfig)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	raw, ok := value[field]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported setting type %T", value)
	}
}

func parseSettingDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Zero, fmt.Errorf("empty string")
		}
		return decimal.NewFromString(trimmed)
	default:
		return decimal.Zero, fmt.Errorf("unsupported setting type %T", value)
	}
}
