package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api/response"
)

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
	Limit() int
}

// KeyFunc picks the rate limit bucket of a request
type KeyFunc func(r *http.Request) string

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter Limiter
	key     KeyFunc
}

// NewRateLimitMiddleware creates a new rate limit middleware. A nil key
// buckets by client IP.
func NewRateLimitMiddleware(limiter Limiter, key KeyFunc) *RateLimitMiddleware {
	if key == nil {
		key = ClientIP
	}
	return &RateLimitMiddleware{limiter: limiter, key: key}
}

// Limit applies rate limiting
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetTime, err := m.limiter.Allow(r.Context(), m.key(r))
		if err != nil {
			// fail open
			log.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetTime).Seconds())+1))
			response.TooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the request's remote host. chi's RealIP middleware has
// already applied forwarding headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
