package api

import (
	"errors"
	"net/http"

	"animehome/backend/internal/relay"
	"animehome/backend/internal/transcript"
	apperrors "animehome/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StreamIDHeader carries the server-assigned stream id of a chat response.
const StreamIDHeader = "X-Stream-ID"

// ChatHandler exposes the streaming relay and transcript recovery
type ChatHandler struct {
	relay       *relay.Relay
	transcripts transcript.Store
}

func NewChatHandler(r *relay.Relay, transcripts transcript.Store) *ChatHandler {
	return &ChatHandler{relay: r, transcripts: transcripts}
}

func (h *ChatHandler) RegisterRoutes(r gin.IRoutes) {
	handle(r, http.MethodPost, "/chat", h.Chat)
	r.GET("/chat/streams/:stream_id", h.GetStream)
}

// Chat streams the model reply as `0:<json string>\n` frames. The X-Stream-ID
// response header names the stream for GET /chat/streams/:stream_id. Stream ids are
// always minted here, never taken from the client.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req relay.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	req.StreamID = uuid.NewString()

	session, err := h.relay.Open(c.Request.Context(), &req)
	if err != nil {
		c.Error(apperrors.NewInternalServerError("UPSTREAM_ERROR", err.Error()))
		return
	}

	c.Header(StreamIDHeader, req.StreamID)
	session.Pipe(c.Request.Context(), c.Writer)
}

func (h *ChatHandler) GetStream(c *gin.Context) {
	if h.transcripts == nil {
		c.Error(apperrors.NewNotFoundError("STREAM_NOT_FOUND", "Stream not found"))
		return
	}

	entry, err := h.transcripts.Get(c.Request.Context(), c.Param("stream_id"))
	if errors.Is(err, transcript.ErrNotFound) {
		c.Error(apperrors.NewNotFoundError("STREAM_NOT_FOUND", "Stream not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
