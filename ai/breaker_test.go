package ai

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"animehome/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyStream struct{}

func (emptyStream) Recv() (string, error) { return "", io.EOF }
func (emptyStream) Close() error          { return nil }

type flakyClient struct {
	err   error
	calls int
}

func (c *flakyClient) StreamChat(context.Context, []ChatTurn) (DeltaStream, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return emptyStream{}, nil
}

func TestBreakerClientOpensOnRepeatedFailures(t *testing.T) {
	next := &flakyClient{err: errors.New("503 service unavailable")}
	client := NewBreakerClient(next, resilience.CircuitBreakerConfig{
		Name:             "test-model",
		FailureThreshold: 2,
		RetryTimeout:     time.Hour,
	}, nil)

	for i := 0; i < 2; i++ {
		_, err := client.StreamChat(context.Background(), nil)
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, client.State())

	_, err := client.StreamChat(context.Background(), nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerClientPassesStreams(t *testing.T) {
	client := NewBreakerClient(&flakyClient{}, resilience.DefaultCircuitBreakerConfig("ok-model"), nil)

	stream, err := client.StreamChat(context.Background(), nil)

	require.NoError(t, err)
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, resilience.StateClosed, client.State())
}

func TestBreakerClientIgnoresCancellation(t *testing.T) {
	next := &flakyClient{err: context.Canceled}
	client := NewBreakerClient(next, resilience.CircuitBreakerConfig{Name: "cancel-model", FailureThreshold: 1}, nil)

	for i := 0; i < 3; i++ {
		_, err := client.StreamChat(context.Background(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, resilience.StateClosed, client.State())
}
