package api

import (
	"fmt"
	"net/http"
	"testing"

	"animehome/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCharacterDefaults(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/characters/", map[string]any{
		"name":          "Rem",
		"system_prompt": "You are Rem.",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Rem", body["name"])
	assert.Equal(t, []any{}, body["tags"])
	assert.Equal(t, []any{}, body["examples"])
	assert.Nil(t, body["avatar"])
	assert.NotZero(t, body["id"])
}

func TestCreateCharacterWithoutSlash(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/characters", map[string]any{
		"name":          "Emilia",
		"system_prompt": "You are Emilia.",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCharacterValidation(t *testing.T) {
	e := newEnv(t)

	for _, body := range []string{
		`{"system_prompt":"x"}`,
		`{"name":"x"}`,
		`{"name":`,
	} {
		w := e.do(http.MethodPost, "/characters/", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", decode[map[string]any](t, w)["code"])
	}
}

func TestGetCharacter(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")

	w := e.do(http.MethodGet, fmt.Sprintf("/characters/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rem", decode[models.Character](t, w).Name)

	w = e.do(http.MethodGet, "/characters/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Character not found", decode[map[string]any](t, w)["detail"])

	w = e.do(http.MethodGet, "/characters/abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListCharactersPaging(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		createCharacter(t, e, fmt.Sprintf("c%d", i))
	}

	w := e.do(http.MethodGet, "/characters/?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Character](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].Name)

	w = e.do(http.MethodGet, "/characters/?limit=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = e.do(http.MethodGet, "/characters/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Character](t, w), 3)

	w = e.do(http.MethodGet, "/characters/?limit=-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateCharacter(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")

	w := e.do(http.MethodPut, fmt.Sprintf("/characters/%d", id), map[string]any{
		"name":          "Ram",
		"system_prompt": "You are Ram.",
		"tags":          []string{"maid"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Character](t, w)
	assert.Equal(t, "Ram", updated.Name)
	assert.Equal(t, []string{"maid"}, []string(updated.Tags))

	w = e.do(http.MethodPut, "/characters/999", map[string]any{"name": "x", "system_prompt": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCharacter(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")

	w := e.do(http.MethodDelete, fmt.Sprintf("/characters/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = e.do(http.MethodDelete, fmt.Sprintf("/characters/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCharacterMessages(t *testing.T) {
	e := newEnv(t)
	id := createCharacter(t, e, "Rem")
	path := fmt.Sprintf("/characters/%d/messages", id)

	w := e.do(http.MethodPost, path, map[string]any{"id": "m1", "role": "user", "content": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg := decode[models.Message](t, w)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, id, msg.CharacterID)

	w = e.do(http.MethodPost, path, map[string]any{"id": "m1", "role": "user", "content": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, path, map[string]any{"id": "m2", "role": "robot", "content": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPost, "/characters/999/messages", map[string]any{"id": "m3", "role": "user", "content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Message](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "hi", list[0].Content)

	w = e.do(http.MethodGet, "/characters/999/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
