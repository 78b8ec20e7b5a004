package service

import (
	"context"
	"errors"
	"fmt"

	"animehome/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService handles message persistence
type MessageService struct {
	db *gorm.DB
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		db: db,
	}
}

// ListMessages returns a character's conversation, oldest first.
func (s *MessageService) ListMessages(ctx context.Context, characterID uint, page Page) ([]models.Message, error) {
	messages := []models.Message{}
	result := page.apply(s.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("created_at ASC")).
		Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("error listing messages for character %d: %w", characterID, result.Error)
	}
	return messages, nil
}

// CreateMessage inserts a message after checking, in the same transaction, that its character exists.
// An empty id is replaced with a fresh UUID.
func (s *MessageService) CreateMessage(ctx context.Context, characterID uint, id, role, content string) (*models.Message, error) {
	if id == "" {
		id = uuid.NewString()
	}

	message := &models.Message{
		ID:          id,
		CharacterID: characterID,
		Role:        role,
		Content:     content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Character{}).Where("id = ?", characterID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrCharacterNotFound
		}
		return tx.Create(message).Error
	})

	switch {
	case err == nil:
		return message, nil
	case errors.Is(err, ErrCharacterNotFound):
		return nil, err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrDuplicateMessage
	default:
		return nil, fmt.Errorf("error creating message: %w", err)
	}
}

// DeleteMessage removes one message by id.
func (s *MessageService) DeleteMessage(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("error deleting message %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteMessages removes every listed message. Unknown ids are ignored.
func (s *MessageService) DeleteMessages(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Message{})
	if result.Error != nil {
		return 0, fmt.Errorf("error deleting messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}
