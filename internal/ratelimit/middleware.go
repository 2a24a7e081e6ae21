// Package ratelimit guards the API with a per-client request budget backed by
// Redis, so every instance behind a load balancer shares the same counters.
package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-billing/internal/common"
)

// New builds a limiter with the given rate over a Redis store.
func New(client *redis.Client, rate limiter.Rate) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// Middleware enforces the limit per client IP. Limiter errors fail open: a
// Redis hiccup must not take the counter offline with it.
type Middleware struct {
	Limiter *limiter.Limiter
	Logger  zerolog.Logger
}

// Handler implements chi middleware.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx, err := m.Limiter.Get(r.Context(), common.ClientIP(r))
		if err != nil {
			m.Logger.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))
		if ctx.Reached {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
