package resilience

import (
	"errors"
	"sync"
	"time"

	"animehome/backend/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker short-circuits calls.
var ErrCircuitOpen = errors.New("circuit open")

// CircuitBreakerState represents the current state of a circuit breaker
type CircuitBreakerState string

const (
	// StateClosed means the circuit is closed and requests are allowed to pass through
	StateClosed CircuitBreakerState = "closed"
	// StateOpen means the circuit is open and requests are being short-circuited
	StateOpen CircuitBreakerState = "open"
	// StateHalfOpen means the circuit is allowing a limited number of test requests
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreaker implements the Circuit Breaker pattern
type CircuitBreaker struct {
	name             string
	state            CircuitBreakerState
	failureThreshold uint
	successThreshold uint
	retryTimeout     time.Duration
	mutex            sync.Mutex
	failureCount     uint
	successCount     uint
	nextAttemptTime  time.Time
	log              *logger.Logger
	now              func() time.Time
	onStateChange    func(name string, state CircuitBreakerState)
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(name string, state CircuitBreakerState)
}

// DefaultCircuitBreakerConfig returns a default circuit breaker configuration
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, log *logger.Logger) *CircuitBreaker {
	if log == nil {
		log = logger.Discard()
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:             config.Name,
		state:            StateClosed,
		failureThreshold: config.FailureThreshold,
		successThreshold: config.SuccessThreshold,
		retryTimeout:     config.RetryTimeout,
		log:              log,
		now:              time.Now,
		onStateChange:    config.OnStateChange,
	}
}

// Execute runs fn unless the circuit is open. Errors for which countable returns
// false pass through without counting as failures.
func (cb *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	if !cb.allowRequest() {
		cb.log.Warn("Circuit breaker preventing request", "name", cb.name)
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && (countable == nil || countable(err)) {
		cb.recordFailure()
		cb.log.Warn("Circuit breaker recorded failure",
			"name", cb.name,
			"error", err.Error(),
		)
		return err
	}

	cb.recordSuccess()
	return err
}

// allowRequest checks if a request should be allowed to proceed
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().After(cb.nextAttemptTime) {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		return cb.successCount < cb.successThreshold
	}

	return false
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		// Any failure in half-open state should transition back to open
		cb.transition(StateOpen)
	}
}

// transition must be called with the lock held.
func (cb *CircuitBreaker) transition(state CircuitBreakerState) {
	cb.state = state
	cb.failureCount = 0
	cb.successCount = 0
	if state == StateOpen {
		cb.nextAttemptTime = cb.now().Add(cb.retryTimeout)
	}

	cb.log.Info("Circuit breaker state changed", "name", cb.name, "state", string(state))
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, state)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return cb.state
}
