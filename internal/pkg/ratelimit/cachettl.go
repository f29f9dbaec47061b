package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// CacheWithTTL хранит счётчик ключа в TTL-кэше. Запись истекает через W после
// создания (expire-after-write, чтение срок не продлевает), поэтому окно
// отсчитывается от первого обращения к ключу после предыдущего истечения,
// а не от границы часов.
//
// Истечение выполняет сам кэш по системному времени: WithClock на эту
// стратегию не влияет.
type CacheWithTTL struct {
	policy Policy
	cache  *ttlcache.Cache[Key, *atomic.Int64]
}

var _ Strategy = (*CacheWithTTL)(nil)

// NewCacheWithTTL создаёт CacheWithTTL с TTL, равным окну политики.
func NewCacheWithTTL(policy Policy, _ ...Option) *CacheWithTTL {
	cache := ttlcache.New[Key, *atomic.Int64](
		ttlcache.WithTTL[Key, *atomic.Int64](policy.Window()),
		ttlcache.WithDisableTouchOnHit[Key, *atomic.Int64](),
	)
	return &CacheWithTTL{
		policy: policy,
		cache:  cache,
	}
}

// Name возвращает имя стратегии.
func (c *CacheWithTTL) Name() string { return StrategyCacheTTL }

// Allow атомарно получает или создаёт счётчик ключа и увеличивает его.
func (c *CacheWithTTL) Allow(_ context.Context, key Key) bool {
	quota := c.policy.Quota(key.Severity)
	item, _ := c.cache.GetOrSet(key, new(atomic.Int64))
	return item.Value().Add(1) <= int64(quota)
}

// Reset удаляет все счётчики.
func (c *CacheWithTTL) Reset(_ context.Context) {
	c.cache.DeleteAll()
}

// Sweep удаляет истёкшие записи из кэша. Живые записи истекут сами,
// поэтому lookback не используется.
func (c *CacheWithTTL) Sweep(_ time.Time, _ time.Duration) int {
	before := c.cache.Len()
	c.cache.DeleteExpired()
	if removed := before - c.cache.Len(); removed > 0 {
		return removed
	}
	return 0
}

// Len возвращает количество записей в кэше, включая ещё не вычищенные истёкшие.
func (c *CacheWithTTL) Len() int {
	return c.cache.Len()
}
