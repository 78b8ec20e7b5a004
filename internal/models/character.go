package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExampleDialogue is one sample exchange shown to the model as part of a character definition.
type ExampleDialogue struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Character struct {
	ID           uint                                 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string                               `json:"name" gorm:"size:255;not null"`
	Avatar       *string                              `json:"avatar"`
	Description  *string                              `json:"description" gorm:"type:text"`
	SystemPrompt string                               `json:"system_prompt" gorm:"type:text;not null"`
	Tags         datatypes.JSONSlice[string]          `json:"tags"`
	FirstMessage *string                              `json:"first_message" gorm:"type:text"`
	Examples     datatypes.JSONSlice[ExampleDialogue] `json:"examples"`
	CreatedAt    time.Time                            `json:"created_at"`
	UpdatedAt    time.Time                            `json:"updated_at"`

	Messages []Message `json:"-" gorm:"foreignKey:CharacterID;constraint:OnDelete:CASCADE"`
}

// CharacterRequest is the writable part of a character, used for create and full replace.
type CharacterRequest struct {
	Name         string            `json:"name" binding:"required,max=255"`
	Avatar       *string           `json:"avatar"`
	Description  *string           `json:"description"`
	SystemPrompt string            `json:"system_prompt" binding:"required"`
	Tags         []string          `json:"tags"`
	FirstMessage *string           `json:"first_message"`
	Examples     []ExampleDialogue `json:"examples"`
}

// Apply copies every writable field onto c. Missing lists become empty lists.
func (r *CharacterRequest) Apply(c *Character) {
	c.Name = r.Name
	c.Avatar = r.Avatar
	c.Description = r.Description
	c.SystemPrompt = r.SystemPrompt
	c.FirstMessage = r.FirstMessage
	c.Tags = datatypes.JSONSlice[string](nonNil(r.Tags))
	c.Examples = datatypes.JSONSlice[ExampleDialogue](nonNil(r.Examples))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
