package api

import (
	"errors"
	"net/http"

	"animehome/backend/internal/service"
	apperrors "animehome/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// MessageHandler handles message deletion endpoints
type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// RegisterRoutes registers the routes for the message handler
func (h *MessageHandler) RegisterRoutes(r gin.IRoutes) {
	r.DELETE("/messages/:message_id", h.DeleteMessage)
	handle(r, http.MethodPost, "/messages/batch_delete", h.BatchDelete)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	err := h.messages.DeleteMessage(c.Request.Context(), c.Param("message_id"))
	if errors.Is(err, service.ErrMessageNotFound) {
		c.Error(apperrors.NewNotFoundError("MESSAGE_NOT_FOUND", "Message not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BatchDelete accepts a JSON array of message ids. Unknown ids are ignored.
func (h *MessageHandler) BatchDelete(c *gin.Context) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.messages.DeleteMessages(c.Request.Context(), ids); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
