package postgres

import (
	"context"
	"testing"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorPostgresStorage_SaveAuthor(t *testing.T) {
	s := NewAuthorPostgresStorage()
	ctx := context.Background()

	t.Run("Create author", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		require.NoError(t, s.SaveAuthor(ctx, &model.Author{ID: "author-1", Name: "Robert Martin"}))

		a, err := s.GetAuthorByID(ctx, "author-1")
		require.NoError(t, err)
		assert.Equal(t, "Robert Martin", a.Name)
		assert.Nil(t, a.Born)
		assert.Empty(t, a.BookIDs)
	})

	t.Run("Update born and books keeps order", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		a := &model.Author{ID: "author-1", Name: "Robert Martin", BookIDs: []string{"book-2"}}
		require.NoError(t, s.SaveAuthor(ctx, a))

		born := 1952
		a.Born = &born
		a.BookIDs = append(a.BookIDs, "book-1")
		require.NoError(t, s.SaveAuthor(ctx, a))

		stored, err := s.FindAuthorByName(ctx, "Robert Martin")
		require.NoError(t, err)
		require.NotNil(t, stored.Born)
		assert.Equal(t, 1952, *stored.Born)
		assert.Equal(t, []string{"book-2", "book-1"}, stored.BookIDs)

		count, err := s.CountAuthors(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Error: duplicate name", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		require.NoError(t, s.SaveAuthor(ctx, &model.Author{ID: "author-1", Name: "Robert Martin"}))

		err := s.SaveAuthor(ctx, &model.Author{ID: "author-2", Name: "Robert Martin"})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("Error: author without name", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		err := s.SaveAuthor(ctx, &model.Author{ID: "author-1"})
		assert.Error(t, err)
	})
}

func TestAuthorPostgresStorage_Find(t *testing.T) {
	s := NewAuthorPostgresStorage()
	ctx := context.Background()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	require.NoError(t, s.SaveAuthor(ctx, &model.Author{ID: "author-1", Name: "Robert Martin"}))
	require.NoError(t, s.SaveAuthor(ctx, &model.Author{ID: "author-2", Name: "Martin Fowler"}))

	t.Run("All authors", func(t *testing.T) {
		authors, err := s.FindAuthors(ctx, author.Filter{})
		require.NoError(t, err)

		names := make([]string, 0, len(authors))
		for _, a := range authors {
			names = append(names, a.Name)
		}
		assert.ElementsMatch(t, []string{"Robert Martin", "Martin Fowler"}, names)
	})

	t.Run("Filter by name", func(t *testing.T) {
		name := "Martin Fowler"
		authors, err := s.FindAuthors(ctx, author.Filter{Name: &name})
		require.NoError(t, err)
		require.Len(t, authors, 1)
		assert.Equal(t, "author-2", authors[0].ID)
	})

	t.Run("Trying to get not exist author", func(t *testing.T) {
		_, err := s.FindAuthorByName(ctx, "Nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.GetAuthorByID(ctx, "author-404")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestAuthorPostgresStorage_DeleteAuthor(t *testing.T) {
	s := NewAuthorPostgresStorage()
	ctx := context.Background()

	oldDB := setupTestDB(t)
	defer teardownTestDB(oldDB)

	require.NoError(t, s.SaveAuthor(ctx, &model.Author{ID: "author-1", Name: "Robert Martin", BookIDs: []string{"book-1"}}))

	require.NoError(t, s.DeleteAuthor(ctx, "author-1"))

	_, err := s.GetAuthorByID(ctx, "author-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteAuthor(ctx, "author-1"), storage.ErrNotFound)
}
