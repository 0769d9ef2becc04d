package server

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/54b3r/docrag/internal/logging"
)

// Per-client token bucket defaults, used when Config leaves them unset.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// clientIdleTTL is how long a client's bucket survives without requests.
const clientIdleTTL = 5 * time.Minute

// clientBucket is the token bucket of one remote address.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter throttles ingest and ask, which call the embedding and chat
// APIs, per client IP. Idle buckets are swept lazily on access so the
// limiter owns no goroutine.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time

	limit rate.Limit
	burst int

	// rejected counts 429s by route pattern. Nil disables counting.
	rejected *prometheus.CounterVec
	// now is replaceable in tests.
	now func() time.Time
}

func newRateLimiter(rps float64, burst int, rejected *prometheus.CounterVec) *rateLimiter {
	return &rateLimiter{
		buckets:  make(map[string]*clientBucket),
		limit:    rate.Limit(rps),
		burst:    burst,
		rejected: rejected,
		now:      time.Now,
	}
}

// bucket returns the limiter for ip, creating it on first use.
func (rl *rateLimiter) bucket(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= clientIdleTTL {
		rl.sweep(now)
	}

	b, ok := rl.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep drops buckets idle for longer than clientIdleTTL. rl.mu must be held.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) > clientIdleTTL {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

// size reports the number of tracked clients.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// middleware rejects requests over the client's budget with 429 and a
// Retry-After header holding the whole seconds until a token is free.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		lim := rl.bucket(ip)

		res := lim.ReserveN(rl.now(), 1)
		if delay := res.DelayFrom(rl.now()); !res.OK() || delay > 0 {
			res.Cancel()
			retry := 1
			if res.OK() {
				retry = max(1, int(math.Ceil(delay.Seconds())))
			}
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after_s", retry),
			)
			if rl.rejected != nil {
				rl.rejected.WithLabelValues(r.Pattern).Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr. X-Forwarded-For is ignored;
// the server is meant to bind to a local or private address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
