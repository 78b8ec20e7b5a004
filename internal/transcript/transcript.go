// Package transcript keeps a short-lived copy of each relayed stream so a client
// that lost its connection can fetch what the model produced.
package transcript

import (
	"context"
	"errors"

	"animehome/backend/internal/relay"
)

// ErrNotFound is returned for unknown or expired streams.
var ErrNotFound = errors.New("stream transcript not found")

// Entry is the stored view of one stream.
type Entry struct {
	StreamID    string `json:"stream_id"`
	Content     string `json:"content"`
	Done        bool   `json:"done"`
	Delivery    string `json:"delivery,omitempty"`
	Persistence string `json:"persistence,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// Store is a relay.Transcript that can also be read back.
type Store interface {
	relay.Transcript
	Get(ctx context.Context, streamID string) (*Entry, error)
	Ping(ctx context.Context) error
	Close() error
}
