package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HammerMeetNail/conversando/internal/logging"
)

// Evaler is the part of *redis.Client the limiter uses.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

const rateLimitScript = `
	local current
	current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], ARGV[1])
	end
	return current
`

type RateLimiter struct {
	redis  Evaler
	limit  int64
	window time.Duration
	prefix string
	keyFn  func(r *http.Request) string
	// failOpen lets requests through when Redis errors.
	failOpen bool
	onLimit  http.Handler
}

func NewRateLimiter(redis Evaler, limit int64, window time.Duration, prefix string, keyFn func(r *http.Request) string, failOpen bool) *RateLimiter {
	return &RateLimiter{
		redis:    redis,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFn:    keyFn,
		failOpen: failOpen,
	}
}

// WithLimitHandler replaces the default 429 response.
func (rl *RateLimiter) WithLimitHandler(h http.Handler) *RateLimiter {
	rl.onLimit = h
	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		keySuffix := ""
		if rl.keyFn != nil {
			keySuffix = rl.keyFn(r)
		}
		if keySuffix == "" {
			keySuffix = RemoteIP(r)
		}

		key := fmt.Sprintf("%s%s", rl.prefix, keySuffix)
		ttlSeconds := int64(rl.window.Seconds())
		result, err := rl.redis.Eval(r.Context(), rateLimitScript, []string{key}, ttlSeconds).Result()
		if err != nil {
			logging.Error("Rate limit Redis error", map[string]interface{}{"error": err.Error()})
			rl.unavailable(w, r, next)
			return
		}

		var count int64
		// Lua numbers may come back as int64 or float64.
		switch v := result.(type) {
		case int64:
			count = v
		case float64:
			count = int64(v)
		default:
			logging.Error("Rate limit Redis script returned unexpected type", map[string]interface{}{"type": fmt.Sprintf("%T", result)})
			rl.unavailable(w, r, next)
			return
		}

		if count > rl.limit {
			logging.Warn("Rate limit exceeded", map[string]interface{}{"key": key, "count": count})
			if rl.onLimit != nil {
				rl.onLimit.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) unavailable(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if rl.failOpen {
		next.ServeHTTP(w, r)
		return
	}
	writeError(w, http.StatusServiceUnavailable, "Rate limiting temporarily unavailable")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ClientIPFunc returns the limiter key for a request. Forwarding headers are
// only honoured behind a trusted proxy; otherwise any client could pick its
// own key.
func ClientIPFunc(trustProxy bool) func(r *http.Request) string {
	if trustProxy {
		return GetClientIP
	}
	return RemoteIP
}

// RemoteIP is the peer address of the connection, without port.
func RemoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// GetClientIP extracts the client IP from the request, respecting
// X-Forwarded-For. Only use it when a proxy in front sets that header.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first address is the client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return RemoteIP(r)
}
