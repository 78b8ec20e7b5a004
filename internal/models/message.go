package models

import (
	"time"
)

// Roles a chat turn may carry
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message. Messages are immutable once written.
type Message struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CharacterID uint      `json:"character_id" gorm:"not null;index"`
	Role        string    `json:"role" gorm:"size:50;not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// CreateMessageRequest is the body accepted when a client records a turn.
type CreateMessageRequest struct {
	ID      string `json:"id" binding:"required,max=36"`
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content"`
}
