package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/auth"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/book"
	domainerrors "github.com/VitaminP8/bookery/internal/errors"
	"github.com/VitaminP8/bookery/internal/mocks"
	"github.com/VitaminP8/bookery/internal/ratelimit"
	"github.com/VitaminP8/bookery/internal/storage/memory"
	"github.com/VitaminP8/bookery/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret"

type testEnv struct {
	resolver *Resolver
	authors  *mocks.MockAuthorStorage
	books    *mocks.MockBookStorage
	users    *mocks.MockUserStorage
	bus      *mocks.MockSubscriptionManager
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	creds, err := auth.NewCredentials("password123")
	require.NoError(t, err)

	env := &testEnv{
		authors: mocks.NewMockAuthorStorage(memory.NewAuthorMemoryStorage()),
		books:   mocks.NewMockBookStorage(memory.NewBookMemoryStorage()),
		users:   mocks.NewMockUserStorage(memory.NewUserMemoryStorage()),
		bus:     mocks.NewMockSubscriptionManager(),
		tokens:  auth.NewTokenService(testSecret, 0),
	}
	env.resolver = &Resolver{
		AuthorStore:         env.authors,
		BookStore:           env.books,
		UserStore:           env.users,
		SubscriptionManager: env.bus,
		Tokens:              env.tokens,
		Credentials:         creds,
	}
	return env
}

func createUserContext() context.Context {
	return auth.WithCurrentUser(context.Background(), &model.User{ID: "user-1", Username: "tester"})
}

func (env *testEnv) addBook(t *testing.T, title, authorName string, genres ...string) *model.Book {
	t.Helper()
	b, err := env.resolver.Mutation().AddBook(createUserContext(), title, 2000, authorName, genres)
	require.NoError(t, err)
	return b
}

func (env *testEnv) counts(t *testing.T) (authors, books int) {
	t.Helper()
	authors, err := env.resolver.Query().AuthorCount(context.Background())
	require.NoError(t, err)
	books, err = env.resolver.Query().BookCount(context.Background())
	require.NoError(t, err)
	return authors, books
}

func TestMutationResolver_AddBook(t *testing.T) {
	t.Run("Successful book creation with new author", func(t *testing.T) {
		env := newTestEnv(t)

		b, err := env.resolver.Mutation().AddBook(createUserContext(), "Dune", 1965, "Frank Herbert", []string{"sf"})
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, "Dune", b.Title)
		assert.Equal(t, 1965, b.Published)
		assert.Equal(t, []string{"sf"}, b.Genres)
		require.NotNil(t, b.Author)
		assert.Equal(t, "Frank Herbert", b.Author.Name)
		assert.Equal(t, b.Author.ID, b.AuthorID)
		assert.Equal(t, []string{b.ID}, b.Author.BookIDs)

		authors, books := env.counts(t)
		assert.Equal(t, 1, authors)
		assert.Equal(t, 1, books)

		notifications := env.bus.GetNotifications(subscription.TopicBookAdded)
		require.Len(t, notifications, 1)
		assert.Equal(t, b.ID, notifications[0].(*model.Book).ID)
	})

	t.Run("Successful book creation for existing author", func(t *testing.T) {
		env := newTestEnv(t)

		first := env.addBook(t, "Dune", "Frank Herbert", "sf")
		second := env.addBook(t, "Dune Messiah", "Frank Herbert", "sf")

		assert.Equal(t, first.AuthorID, second.AuthorID)
		assert.Equal(t, []string{first.ID, second.ID}, second.Author.BookIDs)

		authors, books := env.counts(t)
		assert.Equal(t, 1, authors)
		assert.Equal(t, 2, books)
	})

	t.Run("Every added book has exactly one author listing it", func(t *testing.T) {
		env := newTestEnv(t)

		env.addBook(t, "Dune", "Frank Herbert", "sf")
		env.addBook(t, "Emma", "Jane Austen", "classic")
		env.addBook(t, "Dune Messiah", "Frank Herbert", "sf")
		env.addBook(t, "Persuasion", "Jane Austen", "classic", "romance")

		ctx := context.Background()
		books, err := env.resolver.Query().AllBooks(ctx, nil, nil)
		require.NoError(t, err)
		authors, err := env.resolver.Query().AllAuthors(ctx, nil)
		require.NoError(t, err)
		require.Len(t, books, 4)

		for _, b := range books {
			owners := 0
			for _, a := range authors {
				if a.ID == b.AuthorID {
					owners++
					assert.Contains(t, a.BookIDs, b.ID)
				}
			}
			assert.Equal(t, 1, owners, "book %s", b.Title)
		}
	})

	t.Run("Error when no authorization", func(t *testing.T) {
		env := newTestEnv(t)

		b, err := env.resolver.Mutation().AddBook(context.Background(), "Dune", 1965, "Frank Herbert", []string{"sf"})
		assert.Nil(t, b)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
		assert.Equal(t, "not authenticated", err.Error())

		authors, books := env.counts(t)
		assert.Zero(t, authors)
		assert.Zero(t, books)
		assert.Zero(t, env.authors.SaveCalls())
		assert.Zero(t, env.books.SaveCalls())
		assert.Empty(t, env.bus.GetNotifications(subscription.TopicBookAdded))
	})

	t.Run("Error when no authorization for existing author", func(t *testing.T) {
		env := newTestEnv(t)
		existing := env.addBook(t, "Dune", "Frank Herbert", "sf")
		saves := env.authors.SaveCalls()

		_, err := env.resolver.Mutation().AddBook(context.Background(), "Dune Messiah", 1969, "Frank Herbert", []string{"sf"})
		assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

		a, err := env.authors.FindAuthorByName(context.Background(), "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, []string{existing.ID}, a.BookIDs)
		assert.Equal(t, saves, env.authors.SaveCalls())

		_, books := env.counts(t)
		assert.Equal(t, 1, books)
	})

	t.Run("Invalid book removes just created author", func(t *testing.T) {
		env := newTestEnv(t)

		// пустое название не пройдет валидацию
		b, err := env.resolver.Mutation().AddBook(createUserContext(), "", 1965, "Nobody Known", []string{"sf"})
		assert.Nil(t, b)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)

		var de *domainerrors.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "saving book failed", de.Message)
		assert.Equal(t, "Nobody Known", de.Details.(map[string]any)["author"])

		authors, books := env.counts(t)
		assert.Zero(t, authors)
		assert.Zero(t, books)
		assert.Equal(t, 1, env.authors.DeleteCalls())
	})

	t.Run("Failed compensation is reported", func(t *testing.T) {
		env := newTestEnv(t)
		env.books.FailSave(errors.New("disk full"))
		env.authors.FailDelete(errors.New("connection lost"))

		_, err := env.resolver.Mutation().AddBook(createUserContext(), "Dune", 1965, "Frank Herbert", []string{"sf"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)
		assert.Contains(t, err.Error(), "author was saved without it")
		assert.Contains(t, err.Error(), "disk full")
		assert.Contains(t, err.Error(), "connection lost")

		authors, books := env.counts(t)
		assert.Equal(t, 1, authors)
		assert.Zero(t, books)
	})

	t.Run("Error when author cannot be saved", func(t *testing.T) {
		env := newTestEnv(t)
		env.authors.FailSave(errors.New("disk full"))

		_, err := env.resolver.Mutation().AddBook(createUserContext(), "Dune", 1965, "Frank Herbert", []string{"sf"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)
		assert.Contains(t, err.Error(), "saving author failed")

		_, books := env.counts(t)
		assert.Zero(t, books)
		assert.Zero(t, env.books.SaveCalls())
	})

	t.Run("Error when book for existing author cannot be saved", func(t *testing.T) {
		env := newTestEnv(t)
		existing := env.addBook(t, "Dune", "Frank Herbert", "sf")
		env.books.FailSave(errors.New("disk full"))

		_, err := env.resolver.Mutation().AddBook(createUserContext(), "Dune Messiah", 1969, "Frank Herbert", []string{"sf"})
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)

		a, err := env.authors.FindAuthorByName(context.Background(), "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, []string{existing.ID}, a.BookIDs)
		assert.Len(t, env.bus.GetNotifications(subscription.TopicBookAdded), 1)
	})

	t.Run("Existing author not updated after book was saved", func(t *testing.T) {
		env := newTestEnv(t)
		existing := env.addBook(t, "Dune", "Frank Herbert", "sf")
		env.authors.FailSave(errors.New("disk full"))

		_, err := env.resolver.Mutation().AddBook(createUserContext(), "Dune Messiah", 1969, "Frank Herbert", []string{"sf"})
		require.Error(t, err)

		var de *domainerrors.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "book saved, author book list not updated", de.Message)

		_, books := env.counts(t)
		assert.Equal(t, 2, books)
		a, err := env.authors.FindAuthorByName(context.Background(), "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, []string{existing.ID}, a.BookIDs)
	})

	t.Run("Zero publication year is accepted", func(t *testing.T) {
		env := newTestEnv(t)

		b, err := env.resolver.Mutation().AddBook(createUserContext(), "Iliad", 0, "Homer", []string{"epic"})
		require.NoError(t, err)
		assert.Equal(t, 0, b.Published)

		authors, books := env.counts(t)
		assert.Equal(t, 1, authors)
		assert.Equal(t, 1, books)
	})

	t.Run("Repeated genres are stored once", func(t *testing.T) {
		env := newTestEnv(t)

		b := env.addBook(t, "Dune", "Frank Herbert", "sf", "classic", "sf")
		assert.Equal(t, []string{"sf", "classic"}, b.Genres)
	})

	t.Run("Concurrent books for the same new author create one author", func(t *testing.T) {
		env := newTestEnv(t)
		ctx := createUserContext()

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := env.resolver.Mutation().AddBook(ctx, fmt.Sprintf("Book %d", i), 2000+i, "Prolific Writer", []string{"sf"})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		authors, books := env.counts(t)
		assert.Equal(t, 1, authors)
		assert.Equal(t, n, books)

		a, err := env.authors.FindAuthorByName(ctx, "Prolific Writer")
		require.NoError(t, err)
		assert.Len(t, a.BookIDs, n)
	})
}

func TestMutationResolver_EditAuthor(t *testing.T) {
	t.Run("Successfully set born year", func(t *testing.T) {
		env := newTestEnv(t)
		env.addBook(t, "Emma", "Jane Austen", "classic")

		a, err := env.resolver.Mutation().EditAuthor(createUserContext(), "Jane Austen", 1775)
		require.NoError(t, err)
		require.NotNil(t, a)
		require.NotNil(t, a.Born)
		assert.Equal(t, 1775, *a.Born)

		stored, err := env.authors.FindAuthorByName(context.Background(), "Jane Austen")
		require.NoError(t, err)
		assert.Equal(t, 1775, *stored.Born)
		assert.Len(t, stored.BookIDs, 1)

		notifications := env.bus.GetNotifications(subscription.TopicAuthorEdited)
		require.Len(t, notifications, 1)
		assert.Equal(t, a.ID, notifications[0].(*model.Author).ID)
	})

	t.Run("Unknown author returns nil without error", func(t *testing.T) {
		env := newTestEnv(t)

		a, err := env.resolver.Mutation().EditAuthor(createUserContext(), "Nobody", 1900)
		assert.NoError(t, err)
		assert.Nil(t, a)
		assert.Empty(t, env.bus.GetNotifications(subscription.TopicAuthorEdited))
	})

	t.Run("Error when no authorization", func(t *testing.T) {
		env := newTestEnv(t)
		env.addBook(t, "Emma", "Jane Austen", "classic")

		for _, name := range []string{"Jane Austen", "Nobody"} {
			a, err := env.resolver.Mutation().EditAuthor(context.Background(), name, 1775)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated, name)
		}

		stored, err := env.authors.FindAuthorByName(context.Background(), "Jane Austen")
		require.NoError(t, err)
		assert.Nil(t, stored.Born)
	})

	t.Run("Error when author cannot be saved", func(t *testing.T) {
		env := newTestEnv(t)
		env.addBook(t, "Emma", "Jane Austen", "classic")
		env.authors.FailSave(errors.New("disk full"))

		a, err := env.resolver.Mutation().EditAuthor(createUserContext(), "Jane Austen", 1775)
		assert.Nil(t, a)
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)
		assert.Empty(t, env.bus.GetNotifications(subscription.TopicAuthorEdited))
	})
}

func TestMutationResolver_CreateUserAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var alice *model.User

	t.Run("Successfully create user", func(t *testing.T) {
		u, err := env.resolver.Mutation().CreateUser(ctx, "alice", "fantasy")
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "alice", u.Username)
		require.NotNil(t, u.FavoriteGenre)
		assert.Equal(t, "fantasy", *u.FavoriteGenre)
		alice = u
	})

	t.Run("Error when creating existing user", func(t *testing.T) {
		u, err := env.resolver.Mutation().CreateUser(ctx, "alice", "crime")
		assert.Nil(t, u)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)

		var de *domainerrors.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "creating user failed", de.Message)
		assert.Equal(t, "alice", de.Details.(map[string]any)["username"])
	})

	t.Run("Error when username is too short", func(t *testing.T) {
		_, err := env.resolver.Mutation().CreateUser(ctx, "al", "crime")
		assert.ErrorIs(t, err, domainerrors.ErrBadUserInput)
	})

	t.Run("Successfully login user", func(t *testing.T) {
		require.NotNil(t, alice)

		token, err := env.resolver.Mutation().Login(ctx, "alice", "password123")
		require.NoError(t, err)
		require.NotNil(t, token)

		claims, err := env.tokens.Parse(token.Value)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, alice.ID, claims.ID)
	})

	t.Run("Wrong password and unknown user fail the same way", func(t *testing.T) {
		_, errWrongPassword := env.resolver.Mutation().Login(ctx, "alice", "wrong")
		_, errUnknownUser := env.resolver.Mutation().Login(ctx, "nobody", "password123")

		require.Error(t, errWrongPassword)
		require.Error(t, errUnknownUser)
		assert.ErrorIs(t, errWrongPassword, domainerrors.ErrUnauthenticated)
		assert.ErrorIs(t, errUnknownUser, domainerrors.ErrUnauthenticated)
		assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
	})

	t.Run("Login attempts are throttled per username", func(t *testing.T) {
		env := newTestEnv(t)
		env.resolver.LoginLimiter = ratelimit.New(0.001, 1, time.Minute)
		_, err := env.resolver.Mutation().CreateUser(ctx, "bob", "sf")
		require.NoError(t, err)

		_, err = env.resolver.Mutation().Login(ctx, "bob", "wrong")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

		_, err = env.resolver.Mutation().Login(ctx, "bob", "password123")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
		assert.Equal(t, "wrong credentials", err.Error())
	})
}

func TestQueryResolver_AllBooks(t *testing.T) {
	env := newTestEnv(t)

	tolkien1 := env.addBook(t, "The Hobbit", "J. R. R. Tolkien", "fantasy")
	tolkien2 := env.addBook(t, "The Silmarillion", "J. R. R. Tolkien", "fantasy", "myth")
	christie := env.addBook(t, "Murder on the Orient Express", "Agatha Christie", "crime")
	leGuin := env.addBook(t, "The Left Hand of Darkness", "Ursula K. Le Guin", "sf")
	earthsea := env.addBook(t, "A Wizard of Earthsea", "Ursula K. Le Guin", "fantasy", "sf")

	ctx := context.Background()
	ids := func(books []*model.Book) []string {
		out := make([]string, 0, len(books))
		for _, b := range books {
			out = append(out, b.ID)
		}
		return out
	}
	str := func(s string) *string { return &s }

	t.Run("All books without filter", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{tolkien1.ID, tolkien2.ID, christie.ID, leGuin.ID, earthsea.ID}, ids(books))
		for _, b := range books {
			require.NotNil(t, b.Author)
			assert.Equal(t, b.AuthorID, b.Author.ID)
		}
	})

	t.Run("Books of one genre", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, nil, []string{"fantasy"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{tolkien1.ID, tolkien2.ID, earthsea.ID}, ids(books))
	})

	t.Run("Books with any of the genres", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, nil, []string{"crime", "myth"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{tolkien2.ID, christie.ID}, ids(books))
	})

	t.Run("Books of author", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, str("Ursula K. Le Guin"), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{leGuin.ID, earthsea.ID}, ids(books))
		for _, b := range books {
			assert.Equal(t, "Ursula K. Le Guin", b.Author.Name)
		}
	})

	t.Run("Books of author and genre", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, str("Ursula K. Le Guin"), []string{"fantasy"})
		require.NoError(t, err)
		assert.Equal(t, []string{earthsea.ID}, ids(books))
	})

	t.Run("Unknown author gives empty list", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, str("Nobody"), nil)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)

		books, err = env.resolver.Query().AllBooks(ctx, str("Nobody"), []string{"fantasy"})
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("Empty genre list matches nothing", func(t *testing.T) {
		books, err := env.resolver.Query().AllBooks(ctx, nil, []string{})
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func TestQueryResolver_Authors(t *testing.T) {
	env := newTestEnv(t)
	env.addBook(t, "The Hobbit", "J. R. R. Tolkien", "fantasy")
	env.addBook(t, "The Silmarillion", "J. R. R. Tolkien", "fantasy")
	env.addBook(t, "Emma", "Jane Austen", "classic")

	ctx := context.Background()

	t.Run("All authors", func(t *testing.T) {
		authors, err := env.resolver.Query().AllAuthors(ctx, nil)
		require.NoError(t, err)
		require.Len(t, authors, 2)
		assert.Equal(t, "J. R. R. Tolkien", authors[0].Name)
		assert.Equal(t, "Jane Austen", authors[1].Name)

		count, err := env.resolver.Query().AuthorCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("Authors by name", func(t *testing.T) {
		name := "Jane Austen"
		authors, err := env.resolver.Query().AllAuthors(ctx, &name)
		require.NoError(t, err)
		require.Len(t, authors, 1)
		assert.Equal(t, name, authors[0].Name)

		unknown := "Nobody"
		authors, err = env.resolver.Query().AllAuthors(ctx, &unknown)
		require.NoError(t, err)
		assert.Empty(t, authors)
	})

	t.Run("Book count follows books, not the stored list", func(t *testing.T) {
		// портим денормализованный список у одного из авторов
		tolkien, err := env.authors.FindAuthorByName(ctx, "J. R. R. Tolkien")
		require.NoError(t, err)
		tolkien.BookIDs = []string{"book-ghost-1", "book-ghost-2", "book-ghost-3"}
		require.NoError(t, env.authors.SaveAuthor(ctx, tolkien))

		authors, err := env.resolver.Query().AllAuthors(ctx, nil)
		require.NoError(t, err)

		for _, a := range authors {
			count, err := env.resolver.Author().BookCount(ctx, a)
			require.NoError(t, err)

			name := a.Name
			books, err := env.resolver.Query().AllBooks(ctx, &name, nil)
			require.NoError(t, err)
			assert.Equal(t, len(books), count, a.Name)

			authorBooks, err := env.resolver.Author().Books(ctx, a)
			require.NoError(t, err)
			assert.Len(t, authorBooks, count, a.Name)
			for _, b := range authorBooks {
				assert.Equal(t, a.ID, b.AuthorID)
			}
		}
	})
}

func TestBookResolver_Author(t *testing.T) {
	env := newTestEnv(t)
	added := env.addBook(t, "Emma", "Jane Austen", "classic")
	ctx := context.Background()

	t.Run("Populated author is returned as is", func(t *testing.T) {
		a, err := env.resolver.Book().Author(ctx, added)
		require.NoError(t, err)
		assert.Same(t, added.Author, a)
	})

	t.Run("Author is read from store when not populated", func(t *testing.T) {
		stored, err := env.books.GetBookByID(ctx, added.ID)
		require.NoError(t, err)
		require.Nil(t, stored.Author)

		a, err := env.resolver.Book().Author(ctx, stored)
		require.NoError(t, err)
		assert.Equal(t, "Jane Austen", a.Name)
	})

	t.Run("Error when author does not exist", func(t *testing.T) {
		_, err := env.resolver.Book().Author(ctx, &model.Book{ID: "book-x", AuthorID: "author-missing"})
		assert.Error(t, err)
	})
}

func TestQueryResolver_Me(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Current user", func(t *testing.T) {
		u, err := env.resolver.Query().Me(createUserContext())
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "tester", u.Username)
	})

	t.Run("No user when not authenticated", func(t *testing.T) {
		u, err := env.resolver.Query().Me(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, u)
	})

	assert.Zero(t, env.users.LookupCalls())
}

func receiveBook(t *testing.T, ch <-chan *model.Book) *model.Book {
	t.Helper()
	select {
	case b, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return b
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for book")
	}
	return nil
}

func TestSubscriptionResolver_BookAdded(t *testing.T) {
	t.Run("Subscriber receives new book, late subscriber does not", func(t *testing.T) {
		env := newTestEnv(t)

		ctx1, cancel1 := context.WithCancel(context.Background())
		defer cancel1()
		first, err := env.resolver.Subscription().BookAdded(ctx1)
		require.NoError(t, err)

		_, err = env.resolver.Mutation().AddBook(createUserContext(), "T", 2000, "New Author", []string{"sf"})
		require.NoError(t, err)

		b := receiveBook(t, first)
		assert.Equal(t, "T", b.Title)
		require.NotNil(t, b.Author)
		assert.Equal(t, "New Author", b.Author.Name)

		ctx2, cancel2 := context.WithCancel(context.Background())
		defer cancel2()
		second, err := env.resolver.Subscription().BookAdded(ctx2)
		require.NoError(t, err)

		select {
		case b := <-second:
			t.Fatalf("late subscriber got %v", b)
		case b := <-first:
			t.Fatalf("first subscriber got a second event %v", b)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Stream ends when context is cancelled", func(t *testing.T) {
		env := newTestEnv(t)

		ctx, cancel := context.WithCancel(context.Background())
		ch, err := env.resolver.Subscription().BookAdded(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, env.bus.Subscribers(subscription.TopicBookAdded))

		cancel()

		select {
		case _, ok := <-ch:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("Stream was not closed")
		}
		assert.Eventually(t, func() bool {
			return env.bus.Subscribers(subscription.TopicBookAdded) == 0
		}, time.Second, 10*time.Millisecond)
	})
}

func TestSubscriptionResolver_AuthorEdited(t *testing.T) {
	env := newTestEnv(t)
	env.addBook(t, "Emma", "Jane Austen", "classic")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := env.resolver.Subscription().AuthorEdited(ctx)
	require.NoError(t, err)

	_, err = env.resolver.Mutation().EditAuthor(createUserContext(), "Jane Austen", 1775)
	require.NoError(t, err)

	select {
	case a := <-ch:
		assert.Equal(t, "Jane Austen", a.Name)
		require.NotNil(t, a.Born)
		assert.Equal(t, 1775, *a.Born)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for author")
	}
}

func TestLinkBook(t *testing.T) {
	a := &model.Author{ID: "author-1", Name: "Jane Austen"}
	b := &model.Book{ID: "book-1"}

	linkBook(a, b)
	linkBook(a, b)

	assert.Equal(t, "author-1", b.AuthorID)
	assert.Equal(t, []string{"book-1"}, a.BookIDs)
}

var (
	_ author.AuthorStorage = (*mocks.MockAuthorStorage)(nil)
	_ book.BookStorage     = (*mocks.MockBookStorage)(nil)
)
