package api

import (
	"errors"
	"net/http"

	"animehome/backend/internal/models"
	"animehome/backend/internal/service"
	apperrors "animehome/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CharacterHandler struct {
	characters *service.CharacterService
	messages   *service.MessageService
}

func NewCharacterHandler(characters *service.CharacterService, messages *service.MessageService) *CharacterHandler {
	return &CharacterHandler{characters: characters, messages: messages}
}

// RegisterRoutes registers the character routes and the conversation routes nested under them
func (h *CharacterHandler) RegisterRoutes(r gin.IRoutes) {
	handle(r, http.MethodPost, "/characters", h.CreateCharacter)
	handle(r, http.MethodGet, "/characters", h.ListCharacters)
	r.GET("/characters/:id", h.GetCharacter)
	r.PUT("/characters/:id", h.UpdateCharacter)
	r.DELETE("/characters/:id", h.DeleteCharacter)
	r.GET("/characters/:id/messages", h.ListMessages)
	r.POST("/characters/:id/messages", h.CreateMessage)
}

func characterNotFound() *apperrors.AppError {
	return apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "Character not found")
}

func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	character, err := h.characters.CreateCharacter(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}

	characters, err := h.characters.ListCharacters(c.Request.Context(), page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, characters)
}

func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	character, err := h.characters.GetCharacter(c.Request.Context(), id)
	if errors.Is(err, service.ErrCharacterNotFound) {
		c.Error(characterNotFound())
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	character, err := h.characters.UpdateCharacter(c.Request.Context(), id, &req)
	if errors.Is(err, service.ErrCharacterNotFound) {
		c.Error(characterNotFound())
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	err := h.characters.DeleteCharacter(c.Request.Context(), id)
	if errors.Is(err, service.ErrCharacterNotFound) {
		c.Error(characterNotFound())
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListMessages returns the conversation of a character, oldest first. Unknown characters have no messages.
func (h *CharacterHandler) ListMessages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}

	messages, err := h.messages.ListMessages(c.Request.Context(), id, page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *CharacterHandler) CreateMessage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	message, err := h.messages.CreateMessage(c.Request.Context(), id, req.ID, req.Role, req.Content)
	switch {
	case errors.Is(err, service.ErrCharacterNotFound):
		c.Error(characterNotFound())
		return
	case errors.Is(err, service.ErrDuplicateMessage):
		c.Error(apperrors.NewConflictError("DUPLICATE_MESSAGE", "Message already exists"))
		return
	case err != nil:
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, message)
}
