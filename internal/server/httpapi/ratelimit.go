package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// ipLimiter throttles logon attempts per client address.
type ipLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientLimiter
	now       func() time.Time
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPLimiter allows perMinute attempts per client, in bursts of up to
// perMinute. Zero or less disables the limit.
func newIPLimiter(perMinute int, now func() time.Time) *ipLimiter {
	return &ipLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientLimiter),
		now:       now,
		lastSweep: now(),
	}
}

func (l *ipLimiter) allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdle {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) limitLogon(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			s.metrics.Reject(metrics.ReasonRateLimit)
			s.logger.Warn(r.Context(), "logon throttled", "client", clientIP(r))
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute/time.Second)))
			http.Error(w, "Too many logon attempts, try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
