package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
)

// RateLimiter limits requests per client IP with a token bucket.
// Limiters of idle clients expire after idleTTL.
type RateLimiter struct {
	limiters *cache.Cache
	every    time.Duration
	burst    int
}

const idleTTL = 10 * time.Minute

// NewRateLimiter allows each client one request per interval, with bursts
// of up to burst requests.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(idleTTL, 2*idleTTL),
		every:    interval,
		burst:    burst,
	}
}

// Handler rejects requests over the limit with 429 Too Many Requests.
// Client identity is r.RemoteAddr, so RealIP must run first.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(r.RemoteAddr).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(max(int(rl.every.Seconds()), 1)))
			response.RespondError(w, http.StatusTooManyRequests, "too many requests", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	if v, ok := rl.limiters.Get(client); ok {
		l := v.(*rate.Limiter)
		rl.limiters.SetDefault(client, l)
		return l
	}
	l := rate.NewLimiter(rate.Every(rl.every), rl.burst)
	if err := rl.limiters.Add(client, l, cache.DefaultExpiration); err != nil {
		// another request created it first
		if v, ok := rl.limiters.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}
