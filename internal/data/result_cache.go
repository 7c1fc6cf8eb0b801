package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hazard/internal/biz"
	"hazard/internal/conf"
	"hazard/internal/pkg/bloom"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	resultKeyPrefix = "hazard:result:"

	defaultResultTTL  = 24 * time.Hour
	defaultBloomKey   = "hazard:bloom:analyses"
	defaultBloomBits  = 1 << 24
	defaultBloomFuncs = 7
)

type resultCache struct {
	store  redis.Cache
	filter *bloom.Filter
	ttl    time.Duration
	log    *log.Helper
}

// NewResultCache creates the Redis-backed result cache. It returns nil when
// Redis is not configured.
func NewResultCache(store redis.Cache, c *conf.Data, logger log.Logger) biz.ResultCache {
	if store == nil {
		return nil
	}
	ttl := defaultResultTTL
	key := defaultBloomKey
	bits := uint(defaultBloomBits)
	funcs := uint(defaultBloomFuncs)
	if cc := c.GetCache(); cc != nil {
		if cc.TTL > 0 {
			ttl = cc.TTL.AsDuration()
		}
		if cc.BloomKey != "" {
			key = cc.BloomKey
		}
		if cc.BloomBits > 0 {
			bits = cc.BloomBits
		}
		if cc.BloomHashFuncs > 0 {
			funcs = cc.BloomHashFuncs
		}
	}
	return &resultCache{
		store:  store,
		filter: bloom.NewBloomFilter(store, key, bits, funcs),
		ttl:    ttl,
		log:    log.NewHelper(log.With(logger, "module", "data/result_cache")),
	}
}

// cachedResult mirrors hazard.Result including the raw peak probability.
type cachedResult struct {
	*hazard.Result
	MaxHazard float64 `json:"max_hazard"`
}

func (c *resultCache) Get(ctx context.Context, key string) (*hazard.Result, error) {
	data, err := c.store.GetBytes(ctx, resultKeyPrefix+key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cached := cachedResult{Result: &hazard.Result{}}
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.WithContext(ctx).Warnf("drop corrupt cache entry %s: %v", key, err)
		return nil, nil
	}
	cached.Result.MaxHazard = cached.MaxHazard
	return cached.Result, nil
}

func (c *resultCache) Set(ctx context.Context, key string, res *hazard.Result) error {
	data, err := json.Marshal(cachedResult{Result: res, MaxHazard: res.MaxHazard})
	if err != nil {
		return err
	}
	return c.store.SetBytes(ctx, resultKeyPrefix+key, data, c.ttl)
}

func (c *resultCache) MightContain(ctx context.Context, key string) (bool, error) {
	return c.filter.ExistsWithCtx(ctx, []byte(key))
}

func (c *resultCache) Remember(ctx context.Context, key string) error {
	return c.filter.AddWithCtx(ctx, []byte(key))
}
