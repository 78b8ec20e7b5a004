package service

import (
	"context"
	"errors"

	"animehome/backend/internal/models"
	"animehome/backend/internal/relay"
)

// RelayStoreAdapter adapts the character and message services to relay.Store
type RelayStoreAdapter struct {
	characters *CharacterService
	messages   *MessageService
}

// NewRelayStoreAdapter creates a new adapter for the relay's persistence step
func NewRelayStoreAdapter(characters *CharacterService, messages *MessageService) *RelayStoreAdapter {
	return &RelayStoreAdapter{
		characters: characters,
		messages:   messages,
	}
}

// CharacterExists implements relay.Store
func (a *RelayStoreAdapter) CharacterExists(ctx context.Context, id uint) (bool, error) {
	return a.characters.CharacterExists(ctx, id)
}

// AppendAssistantMessage implements relay.Store. The message id is generated here.
func (a *RelayStoreAdapter) AppendAssistantMessage(ctx context.Context, characterID uint, content string) (string, error) {
	msg, err := a.messages.CreateMessage(ctx, characterID, "", models.RoleAssistant, content)
	if errors.Is(err, ErrCharacterNotFound) {
		return "", relay.ErrCharacterGone
	}
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

var _ relay.Store = (*RelayStoreAdapter)(nil)
