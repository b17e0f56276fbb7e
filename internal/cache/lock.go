package cache

import (
	"context"
	"time"
)

// AcquireLock 获取短时互斥锁（SetNX），用于折叠网关回调的重复投递。
// Redis 未启用时直接放行，幂等性由支付状态的条件更新兜底。
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !Enabled() {
		return true, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return redisClient.SetNX(ctx, buildKey("lock:"+key), 1, ttl).Result()
}

// ReleaseLock 释放互斥锁
func ReleaseLock(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Del(ctx, buildKey("lock:"+key)).Err()
}
