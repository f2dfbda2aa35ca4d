package http

import "golang.org/x/time/rate"

// messageLimiter throttles chat messages on one connection.
// A zero rate disables throttling.
type messageLimiter struct {
	lim *rate.Limiter
}

func newMessageLimiter(perSecond float64, burst int) *messageLimiter {
	if perSecond <= 0 {
		return &messageLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &messageLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (m *messageLimiter) allow() bool {
	if m == nil || m.lim == nil {
		return true
	}
	return m.lim.Allow()
}
