package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"animehome/backend/ai"
	"animehome/backend/internal/database/dbtest"
	"animehome/backend/internal/relay"
	"animehome/backend/internal/service"
	"animehome/backend/internal/transcript"
	apperrors "animehome/backend/pkg/errors"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type scriptedStream struct {
	deltas []string
	err    error
}

func (s *scriptedStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *scriptedStream) Close() error { return nil }

type scriptedClient struct {
	deltas  []string
	err     error
	openErr error
	turns   []ai.ChatTurn
}

func (c *scriptedClient) StreamChat(_ context.Context, turns []ai.ChatTurn) (ai.DeltaStream, error) {
	c.turns = turns
	if c.openErr != nil {
		return nil, c.openErr
	}
	deltas := append([]string(nil), c.deltas...)
	return &scriptedStream{deltas: deltas, err: c.err}, nil
}

type env struct {
	engine      *gin.Engine
	characters  *service.CharacterService
	messages    *service.MessageService
	transcripts transcript.Store
	client      *scriptedClient
	relay       *relay.Relay
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.NewTestDB(t)

	e := &env{
		characters:  service.NewCharacterService(db),
		messages:    service.NewMessageService(db),
		transcripts: transcript.NewMemoryStore(0),
		client:      &scriptedClient{},
	}
	t.Cleanup(func() { _ = e.transcripts.Close() })

	e.relay = relay.New(e.client, service.NewRelayStoreAdapter(e.characters, e.messages), relay.Options{
		Transcript: e.transcripts,
		Logger:     logger.Discard(),
	})

	engine := gin.New()
	engine.Use(logger.Middleware(logger.Discard()), middleware.RequestContext(), apperrors.ErrorHandler())
	NewCharacterHandler(e.characters, e.messages).RegisterRoutes(engine)
	NewMessageHandler(e.messages).RegisterRoutes(engine)
	NewChatHandler(e.relay, e.transcripts).RegisterRoutes(engine)
	e.engine = engine
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createCharacter(t *testing.T, e *env, name string) uint {
	t.Helper()
	w := e.do(http.MethodPost, "/characters/", map[string]any{
		"name":          name,
		"system_prompt": "You are " + name + ".",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		ID uint `json:"id"`
	}](t, w).ID
}
