package api

import (
	"net/http"
	"sync"

	apperrors "civic-assist/internal/errors"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// clientLimiters keeps one token bucket per client IP. The map grows
// with distinct clients; for this service's deployment scale that is
// acceptable.
type clientLimiters struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		clients: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.clients[key]
	if !ok {
		limiter = rate.NewLimiter(c.rps, c.burst)
		c.clients[key] = limiter
	}
	return limiter
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiters.get(apperrors.ClientIP(r)).Allow() {
			s.errs.HandleRateLimitError(w, r, uuid.New().String())
			return
		}
		next.ServeHTTP(w, r)
	})
}
