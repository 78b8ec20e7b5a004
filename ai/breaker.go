package ai

import (
	"context"
	"errors"

	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/metrics"
	"animehome/backend/pkg/resilience"
)

// BreakerClient short-circuits StreamChat after repeated failures to open a stream,
// so an unreachable provider fails chat requests fast instead of at its timeout.
type BreakerClient struct {
	next    StreamingClient
	breaker *resilience.CircuitBreaker
}

func NewBreakerClient(next StreamingClient, cfg resilience.CircuitBreakerConfig, log *logger.Logger) *BreakerClient {
	cfg.OnStateChange = func(name string, state resilience.CircuitBreakerState) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(state))
	}
	return &BreakerClient{next: next, breaker: resilience.NewCircuitBreaker(cfg, log)}
}

func (c *BreakerClient) StreamChat(ctx context.Context, turns []ChatTurn) (DeltaStream, error) {
	var stream DeltaStream
	err := c.breaker.Execute(func() error {
		var err error
		stream, err = c.next.StreamChat(ctx, turns)
		return err
	}, countable)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// State reports the breaker state for diagnostics.
func (c *BreakerClient) State() resilience.CircuitBreakerState {
	return c.breaker.GetState()
}

// countable excludes failures caused by the caller giving up.
func countable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func stateValue(state resilience.CircuitBreakerState) float64 {
	switch state {
	case resilience.StateOpen:
		return 2
	case resilience.StateHalfOpen:
		return 1
	default:
		return 0
	}
}
