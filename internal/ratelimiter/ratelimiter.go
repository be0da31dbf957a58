package ratelimiter

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const storePrefix = "assoc-api:limiter"

// NewStore keeps counters in redis when a client is given so that every API
// instance shares them, and in process memory otherwise.
func NewStore(rdb *redis.Client) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: storePrefix}), nil
	}

	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: storePrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}

	return store, nil
}

// NewRateLimit builds a middleware from a formatted rate such as "20-M".
func NewRateLimit(store limiter.Store, formatted string, keyGetter stdlib.KeyGetter, onLimitReached stdlib.LimitReachedHandler) (*stdlib.Middleware, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	options := []stdlib.Option{stdlib.WithKeyGetter(keyGetter)}
	if onLimitReached != nil {
		options = append(options, stdlib.WithLimitReachedHandler(onLimitReached))
	}

	return stdlib.NewMiddleware(limiter.New(store, rate), options...), nil
}
