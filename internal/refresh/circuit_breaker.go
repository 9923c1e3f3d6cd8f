package refresh

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitBreaker stops calling the refresh endpoint after repeated failures
// and lets a single attempt through once resetTimeout has passed.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	failures            int
	totalRequests       int
	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	now    func() time.Time
	logger *zap.Logger
	mutex  sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker. A threshold <= 0 disables it.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
		logger:           logger,
	}
}

// RecordSuccess records a successful refresh
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests++
	cb.consecutiveFailures = 0
	cb.isOpen = false
}

// RecordFailure records a failed refresh (transport error or non-2xx)
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.totalRequests++
	cb.lastFailureTime = cb.now()

	if cb.failureThreshold > 0 && !cb.isOpen && cb.consecutiveFailures >= cb.failureThreshold {
		cb.isOpen = true
		cb.logger.Warn("refresh circuit breaker open",
			zap.Int("consecutive_failures", cb.consecutiveFailures),
			zap.Int("last_status", statusCode),
			zap.Duration("reset_timeout", cb.resetTimeout))
	}
}

// CanProceed checks if a refresh is allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	// Half-open: allow one attempt; another failure re-opens immediately.
	if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
		cb.logger.Info("refresh circuit breaker half-open", zap.Duration("reset_timeout", cb.resetTimeout))
		cb.isOpen = false
		cb.consecutiveFailures = cb.failureThreshold - 1
		return true
	}

	return false
}

// GetStatus returns current circuit breaker status
func (cb *CircuitBreaker) GetStatus() (isOpen bool, failures int, total int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.isOpen, cb.failures, cb.totalRequests
}
