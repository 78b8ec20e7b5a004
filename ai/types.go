package ai

import "context"

// ChatTurn is one message of the conversation sent upstream.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeltaStream yields the incremental text fragments of one completion.
// Recv returns io.EOF once the provider signals the end of the stream.
// A fragment may be empty when the provider sends a chunk without content.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}

// StreamingClient opens streaming chat completions against a provider.
type StreamingClient interface {
	StreamChat(ctx context.Context, turns []ChatTurn) (DeltaStream, error)
}
