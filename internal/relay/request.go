package relay

import (
	"animehome/backend/ai"
	"animehome/backend/internal/models"
)

// Turn is one prior message supplied by the client.
type Turn struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// Request is the inbound chat request.
type Request struct {
	Messages     []Turn  `json:"messages" binding:"required,dive"`
	SystemPrompt *string `json:"systemPrompt"`
	CharacterID  *int64  `json:"character_id"`

	// StreamID identifies the run in logs and in the transcript store.
	StreamID string `json:"-"`
}

// Turns builds the upstream conversation. A non-empty system prompt is prepended
// as its own system turn even when the supplied turns already contain one.
func (r *Request) Turns() []ai.ChatTurn {
	turns := make([]ai.ChatTurn, 0, len(r.Messages)+1)
	if r.SystemPrompt != nil && *r.SystemPrompt != "" {
		turns = append(turns, ai.ChatTurn{Role: models.RoleSystem, Content: *r.SystemPrompt})
	}
	for _, m := range r.Messages {
		turns = append(turns, ai.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}
