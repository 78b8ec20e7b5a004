package relay

import "time"

// Delivery tells whether the client was sent everything the model produced.
type Delivery string

const (
	DeliveryFull    Delivery = "full"
	DeliveryPartial Delivery = "partial"
)

// Persistence is the outcome of the terminal save.
type Persistence string

const (
	PersistenceNotRequested Persistence = "not_requested"
	PersistencePersisted    Persistence = "persisted"
	PersistenceSkipped      Persistence = "skipped"
	PersistenceFailed       Persistence = "failed"
)

// Result records how one relay run ended. It is logged and counted, never sent to the client.
type Result struct {
	StreamID    string
	CharacterID *int64

	Delivery    Delivery
	Persistence Persistence

	// Text is the accumulated assistant reply, partial when UpstreamErr is set.
	Text      string
	Frames    int
	MessageID string

	// ClientGone is set once a write to the client failed or its request was cancelled.
	ClientGone  bool
	UpstreamErr error
	PersistErr  error

	Duration time.Duration
}

// LogArgs flattens the result into slog key/value pairs.
func (r *Result) LogArgs() []any {
	args := []any{
		"stream_id", r.StreamID,
		"delivery", string(r.Delivery),
		"persistence", string(r.Persistence),
		"frames", r.Frames,
		"chars", len(r.Text),
		"client_gone", r.ClientGone,
		"duration_ms", r.Duration.Milliseconds(),
	}
	if r.CharacterID != nil {
		args = append(args, "character_id", *r.CharacterID)
	}
	if r.MessageID != "" {
		args = append(args, "message_id", r.MessageID)
	}
	if r.UpstreamErr != nil {
		args = append(args, "upstream_error", r.UpstreamErr.Error())
	}
	if r.PersistErr != nil {
		args = append(args, "persist_error", r.PersistErr.Error())
	}
	return args
}
