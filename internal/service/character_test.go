package service

import (
	"context"
	"testing"

	"animehome/backend/internal/database/dbtest"
	"animehome/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newCharacter(t *testing.T, svc *CharacterService, name string) *models.Character {
	t.Helper()
	c, err := svc.CreateCharacter(context.Background(), &models.CharacterRequest{
		Name:         name,
		SystemPrompt: "You are " + name,
	})
	require.NoError(t, err)
	return c
}

func TestCreateCharacterDefaultsLists(t *testing.T) {
	db := dbtest.NewTestDB(t)
	svc := NewCharacterService(db)

	c := newCharacter(t, svc, "Rem")
	assert.NotZero(t, c.ID)
	assert.NotNil(t, c.Tags)
	assert.Empty(t, c.Tags)
	assert.NotNil(t, c.Examples)

	got, err := svc.GetCharacter(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rem", got.Name)
	assert.Empty(t, got.Tags)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateCharacterRoundTripsJSONColumns(t *testing.T) {
	db := dbtest.NewTestDB(t)
	svc := NewCharacterService(db)
	ctx := context.Background()

	c, err := svc.CreateCharacter(ctx, &models.CharacterRequest{
		Name:         "Emilia",
		SystemPrompt: "Be kind",
		Avatar:       strPtr("http://localhost:8000/static/avatars/a.png"),
		Tags:         []string{"half-elf", "mage"},
		Examples:     []models.ExampleDialogue{{User: "hi", Assistant: "hello"}},
	})
	require.NoError(t, err)

	got, err := svc.GetCharacter(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"half-elf", "mage"}, []string(got.Tags))
	require.Len(t, got.Examples, 1)
	assert.Equal(t, "hello", got.Examples[0].Assistant)
	require.NotNil(t, got.Avatar)
	assert.Nil(t, got.Description)
}

func TestGetCharacterNotFound(t *testing.T) {
	svc := NewCharacterService(dbtest.NewTestDB(t))

	_, err := svc.GetCharacter(context.Background(), 42)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestListCharactersPaging(t *testing.T) {
	svc := NewCharacterService(dbtest.NewTestDB(t))
	for _, name := range []string{"a", "b", "c"} {
		newCharacter(t, svc, name)
	}

	all, err := svc.ListCharacters(context.Background(), Page{Limit: DefaultLimit})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)

	page, err := svc.ListCharacters(context.Background(), Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Name)

	none, err := svc.ListCharacters(context.Background(), Page{Limit: 0})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateCharacterReplacesAllFields(t *testing.T) {
	svc := NewCharacterService(dbtest.NewTestDB(t))
	ctx := context.Background()

	c, err := svc.CreateCharacter(ctx, &models.CharacterRequest{
		Name:         "Old",
		SystemPrompt: "old prompt",
		Description:  strPtr("to be cleared"),
		Tags:         []string{"x"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateCharacter(ctx, c.ID, &models.CharacterRequest{
		Name:         "New",
		SystemPrompt: "new prompt",
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID)

	got, err := svc.GetCharacter(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "new prompt", got.SystemPrompt)
	assert.Nil(t, got.Description)
	assert.Empty(t, got.Tags)
}

func TestUpdateCharacterNotFound(t *testing.T) {
	svc := NewCharacterService(dbtest.NewTestDB(t))

	_, err := svc.UpdateCharacter(context.Background(), 7, &models.CharacterRequest{Name: "x", SystemPrompt: "y"})
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestDeleteCharacterCascadesMessages(t *testing.T) {
	db := dbtest.NewTestDB(t)
	characters := NewCharacterService(db)
	messages := NewMessageService(db)
	ctx := context.Background()

	keep := newCharacter(t, characters, "keep")
	drop := newCharacter(t, characters, "drop")

	_, err := messages.CreateMessage(ctx, drop.ID, "m1", models.RoleUser, "hi")
	require.NoError(t, err)
	_, err = messages.CreateMessage(ctx, keep.ID, "m2", models.RoleUser, "hi")
	require.NoError(t, err)

	require.NoError(t, characters.DeleteCharacter(ctx, drop.ID))

	var remaining []models.Message
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "m2", remaining[0].ID)

	assert.ErrorIs(t, characters.DeleteCharacter(ctx, drop.ID), ErrCharacterNotFound)
}

func TestCharacterExists(t *testing.T) {
	svc := NewCharacterService(dbtest.NewTestDB(t))
	c := newCharacter(t, svc, "x")

	ok, err := svc.CharacterExists(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CharacterExists(context.Background(), c.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)
}
