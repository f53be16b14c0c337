package service

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.comments.Add(ctx, "post-1", "Hola")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	f.register(t, "Ana@Gmail.com", "1999-04-02", "")
	c, err := f.comments.Add(ctx, "post-1", "  ¡Qué rica torta!  ")
	require.NoError(t, err)

	assert.Equal(t, "¡Qué rica torta!", c.Text)
	assert.Equal(t, "ana@gmail.com", c.OwnerID)
	assert.Equal(t, "Ana", c.AuthorName)
	assert.NotEmpty(t, c.ID)
	assert.Nil(t, c.EditedAt)

	assert.Equal(t, []models.BlogComment{c}, f.comments.List(ctx, "post-1"))
	assert.Empty(t, f.comments.List(ctx, "post-2"))

	stored := store.ReadJSON[map[string][]models.BlogComment](ctx, f.kv, store.KeyComments, nil)
	assert.Equal(t, []models.BlogComment{c}, stored["post-1"])
}

func TestCommentText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@gmail.com", "1999-04-02", "")

	for _, text := range []string{"   ", strings.Repeat("a", 301)} {
		_, err := f.comments.Add(ctx, "post-1", text)
		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "text")
	}

	_, err := f.comments.Add(ctx, "post-1", strings.Repeat("ñ", 300))
	assert.NoError(t, err)
}

func TestCommentAuthorFallsBackToEmailLocalPart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "pepa@gmail.com", "1999-04-02", "")
	f.state.session.Name = ""

	c, err := f.comments.Add(ctx, "post-1", "Hola")
	require.NoError(t, err)
	assert.Equal(t, "pepa", c.AuthorName)
}

func TestOnlyOwnerEditsAndDeletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.register(t, "ana@gmail.com", "1999-04-02", "")
	c, err := f.comments.Add(ctx, "post-1", "Original")
	require.NoError(t, err)
	f.accounts.Logout(ctx)

	req := registration("otro@gmail.com", "1999-04-02", "")
	req.RUN = "12345678-5"
	_, err = f.accounts.Register(ctx, req)
	require.NoError(t, err)

	edited, err := f.comments.Edit(ctx, "post-1", c.ID, "Hackeado")
	require.NoError(t, err)
	assert.False(t, edited)
	deleted, err := f.comments.Delete(ctx, "post-1", c.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "Original", f.comments.List(ctx, "post-1")[0].Text)

	f.accounts.Logout(ctx)
	_, err = f.accounts.Login(ctx, "ana@gmail.com", "secreto")
	require.NoError(t, err)

	edited, err = f.comments.Edit(ctx, "post-1", c.ID, " Editado ")
	require.NoError(t, err)
	assert.True(t, edited)
	got := f.comments.List(ctx, "post-1")[0]
	assert.Equal(t, "Editado", got.Text)
	assert.NotNil(t, got.EditedAt)

	deleted, err = f.comments.Delete(ctx, "post-1", c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, f.comments.List(ctx, "post-1"))
}

func TestLoadNormalizesStoredComments(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, store.KeyComments, []byte(`{"post-1":[
		{"email":"Ana@Gmail.com","name":"Ana","text":"Viejo"},
		{"id":"c_1","owner_id":"luis@gmail.com","author_name":"Luis","text":"Nuevo","ts":1700000000000}
	]}`)))

	f := newFixtureWithKV(t, kv)
	list := f.comments.List(ctx, "post-1")

	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].ID)
	assert.Equal(t, "ana@gmail.com", list[0].OwnerID)
	assert.Equal(t, "Ana", list[0].AuthorName)
	assert.NotZero(t, list[0].CreatedAt)
	assert.Equal(t, "c_1", list[1].ID)
	assert.Equal(t, int64(1700000000000), list[1].CreatedAt)
}
