package main

import (
	"net/http"

	"github.com/devphaseX/assoc-api/internal/ratelimiter"
	"github.com/redis/go-redis/v9"
)

func ipBaseRateLimiterGetter(r *http.Request) string {
	return r.RemoteAddr
}

// setRateLimit builds the upload limiter. rdb may be nil.
func (app *application) setRateLimit(rdb *redis.Client) error {
	if !app.cfg.rateLimit.enabled {
		return nil
	}

	limiterStore, err := ratelimiter.NewStore(rdb)
	if err != nil {
		return err
	}

	app.uploadLimiter, err = ratelimiter.NewRateLimit(limiterStore, app.cfg.rateLimit.uploads, ipBaseRateLimiterGetter, app.rateLimitExceededResponse)
	return err
}

func (app *application) rateLimitUploads(next http.Handler) http.Handler {
	if app.uploadLimiter == nil {
		return next
	}
	return app.uploadLimiter.Handler(next)
}
