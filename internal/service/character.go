package service

import (
	"context"
	"errors"
	"fmt"

	"animehome/backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrDuplicateMessage  = errors.New("message id already exists")
)

// Page bounds a list query. Limit is taken literally, so a zero Limit selects no
// rows; a negative one falls back to DefaultLimit.
type Page struct {
	Skip  int
	Limit int
}

const DefaultLimit = 100

func (p Page) apply(q *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit < 0 {
		limit = DefaultLimit
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	return q.Offset(skip).Limit(limit)
}

type CharacterService struct {
	db *gorm.DB
}

func NewCharacterService(db *gorm.DB) *CharacterService {
	return &CharacterService{
		db: db,
	}
}

func (s *CharacterService) CreateCharacter(ctx context.Context, req *models.CharacterRequest) (*models.Character, error) {
	character := &models.Character{}
	req.Apply(character)

	if err := s.db.WithContext(ctx).Create(character).Error; err != nil {
		return nil, fmt.Errorf("error creating character: %w", err)
	}

	return character, nil
}

func (s *CharacterService) GetCharacter(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	result := s.db.WithContext(ctx).First(&character, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrCharacterNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("error getting character %d: %w", id, result.Error)
	}
	return &character, nil
}

func (s *CharacterService) ListCharacters(ctx context.Context, page Page) ([]models.Character, error) {
	characters := []models.Character{}
	result := page.apply(s.db.WithContext(ctx).Order("id ASC")).Find(&characters)
	if result.Error != nil {
		return nil, fmt.Errorf("error listing characters: %w", result.Error)
	}
	return characters, nil
}

// UpdateCharacter replaces every writable field of an existing character.
func (s *CharacterService) UpdateCharacter(ctx context.Context, id uint, req *models.CharacterRequest) (*models.Character, error) {
	var character models.Character

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&character, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCharacterNotFound
			}
			return err
		}

		req.Apply(&character)

		// Save writes zero values too, so omitted optional fields are cleared.
		return tx.Save(&character).Error
	})
	if err != nil {
		if errors.Is(err, ErrCharacterNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating character %d: %w", id, err)
	}

	return &character, nil
}

// DeleteCharacter removes a character and its whole conversation in one transaction.
func (s *CharacterService) DeleteCharacter(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var character models.Character
		if err := tx.Select("id").First(&character, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCharacterNotFound
			}
			return err
		}

		if err := tx.Where("character_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("error deleting messages: %w", err)
		}

		return tx.Delete(&character).Error
	})
	if err != nil {
		if errors.Is(err, ErrCharacterNotFound) {
			return err
		}
		return fmt.Errorf("error deleting character %d: %w", id, err)
	}
	return nil
}

// CharacterExists reports whether id names a stored character.
func (s *CharacterService) CharacterExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking character %d: %w", id, err)
	}
	return count > 0, nil
}
