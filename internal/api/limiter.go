package api

import (
	"net/http"

	"mdgate/internal/models"
)

type requestLimiter struct {
	ch chan struct{}
}

func newRequestLimiter(max int) *requestLimiter {
	if max <= 0 {
		return nil
	}
	return &requestLimiter{ch: make(chan struct{}, max)}
}

func (l *requestLimiter) tryAcquire() bool {
	select {
	case l.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *requestLimiter) release() {
	select {
	case <-l.ch:
	default:
	}
}

func (s *server) acquireConvertSlot(w http.ResponseWriter) (func(), bool) {
	if s.convertLimit == nil {
		return func() {}, true
	}
	if s.convertLimit.tryAcquire() {
		return s.convertLimit.release, true
	}
	w.Header().Set("Retry-After", "2")
	writeError(w, http.StatusTooManyRequests, models.CodeRateLimited, "too many concurrent conversions; try again later")
	return nil, false
}
