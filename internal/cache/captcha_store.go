package cache

import (
	"context"
	"time"

	"github.com/shopnext/internal/logger"

	"github.com/mojocn/base64Captcha"
)

// CaptchaStore 基于 Redis 的验证码存储，Redis 未启用时退回内存存储
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建验证码存储
func NewCaptchaStore(ttl time.Duration) base64Captcha.Store {
	if !Enabled() {
		return base64Captcha.DefaultMemStore
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

// Set 写入验证码答案
func (s *CaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return redisClient.Set(ctx, buildKey("captcha:"+id), value, s.ttl).Err()
}

// Get 读取验证码答案
func (s *CaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := buildKey("captcha:" + id)
	value, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	if clear {
		if err := redisClient.Del(ctx, key).Err(); err != nil {
			logger.Warnw("captcha_store_clear_failed", "error", err)
		}
	}
	return value
}

// Verify 校验验证码答案
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	stored := s.Get(id, clear)
	return stored != "" && stored == answer
}
