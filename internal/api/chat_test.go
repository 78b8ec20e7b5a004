package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"animehome/backend/ai"
	"animehome/backend/internal/models"
	"animehome/backend/internal/relay"
	"animehome/backend/internal/service"
	"animehome/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStreamsFramesAndPersists(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	e.client.deltas = []string{"Hel", "lo"}

	body := fmt.Sprintf(`{"messages":[{"role":"user","content":"hi"}],"systemPrompt":"be kind","character_id":%d}`, id)
	w := e.do(http.MethodPost, "/chat/", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0:\"Hel\"\n0:\"lo\"\n", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, []ai.ChatTurn{
		{Role: "system", Content: "be kind"},
		{Role: "user", Content: "hi"},
	}, e.client.turns)

	messages, err := e.messages.ListMessages(context.Background(), id, service.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
	assert.Equal(t, "Hello", messages[0].Content)
}

func TestChatWithoutCharacterDoesNotPersist(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	e.client.deltas = []string{"ok"}

	w := e.do(http.MethodPost, "/chat", `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0:\"ok\"\n", w.Body.String())
	messages, err := e.messages.ListMessages(context.Background(), id, service.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatUpstreamFailureBeforeFirstFragment(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	e.client.openErr = errors.New("401 unauthorized")

	w := e.do(http.MethodPost, "/chat/", fmt.Sprintf(`{"messages":[{"role":"user","content":"hi"}],"character_id":%d}`, id))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
	assert.Contains(t, body["detail"], "401 unauthorized")

	messages, err := e.messages.ListMessages(context.Background(), id, service.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatMidStreamFailureKeepsPartialReply(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	e.client.deltas = []string{"Hal"}
	e.client.err = errors.New("connection reset")

	w := e.do(http.MethodPost, "/chat/", fmt.Sprintf(`{"messages":[{"role":"user","content":"hi"}],"character_id":%d}`, id))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0:\"Hal\"\n", w.Body.String())
	messages, err := e.messages.ListMessages(context.Background(), id, service.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hal", messages[0].Content)
}

func TestChatValidation(t *testing.T) {
	e := newEnv(t)

	for _, body := range []string{
		`{}`,
		`{"messages":[{"role":"robot","content":"hi"}]}`,
		`not json`,
	} {
		w := e.do(http.MethodPost, "/chat/", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
	}
}

func TestStreamTranscriptRecovery(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	e.client.deltas = []string{"Hel", "lo"}

	w := e.do(http.MethodPost, "/chat/", fmt.Sprintf(`{"messages":[{"role":"user","content":"hi"}],"character_id":%d}`, id))
	require.Equal(t, http.StatusOK, w.Code)
	streamID := w.Header().Get(StreamIDHeader)
	require.NotEmpty(t, streamID)
	e.relay.Wait()

	w = e.do(http.MethodGet, "/chat/streams/"+streamID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entry := decode[map[string]any](t, w)
	assert.Equal(t, "Hello", entry["content"])
	assert.Equal(t, true, entry["done"])
	assert.Equal(t, string(relay.DeliveryFull), entry["delivery"])
	assert.Equal(t, string(relay.PersistencePersisted), entry["persistence"])

	w = e.do(http.MethodGet, "/chat/streams/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamIDIgnoresClientRequestID(t *testing.T) {
	e := newEnv(t)

	post := func(reply string) string {
		e.client.deltas = []string{reply}
		req := httptest.NewRequest(http.MethodPost, "/chat/", bytes.NewBufferString(`{"messages":[{"role":"user","content":"hi"}]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(logger.RequestIDHeader, "retry-1")
		w := httptest.NewRecorder()
		e.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "retry-1", w.Header().Get(logger.RequestIDHeader))
		return w.Header().Get(StreamIDHeader)
	}

	first := post("first")
	second := post("second")
	e.relay.Wait()

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, "retry-1", first)

	for streamID, want := range map[string]string{first: "first", second: "second"} {
		w := e.do(http.MethodGet, "/chat/streams/"+streamID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[map[string]any](t, w)["content"])
	}

	w := e.do(http.MethodGet, "/chat/streams/retry-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatNegativeCharacterIDStreamsWithoutSaving(t *testing.T) {
	e := newEnv(t)
	e.client.deltas = []string{"ok"}

	w := e.do(http.MethodPost, "/chat/", `{"messages":[{"role":"user","content":"hi"}],"character_id":-1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0:\"ok\"\n", w.Body.String())
	e.relay.Wait()

	w = e.do(http.MethodGet, "/chat/streams/"+w.Header().Get(StreamIDHeader), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(relay.PersistenceSkipped), decode[map[string]any](t, w)["persistence"])
}
