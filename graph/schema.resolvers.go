package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/auth"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/book"
	domainerrors "github.com/VitaminP8/bookery/internal/errors"
	"github.com/VitaminP8/bookery/internal/id"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/subscription"
)

// Books is the resolver for the books field.
func (r *authorResolver) Books(ctx context.Context, obj *model.Author) ([]*model.Book, error) {
	// живой запрос по Book.author, сохраненный obj.BookIDs не используется
	books, err := r.BookStore.FindBooks(ctx, book.Filter{AuthorID: &obj.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to get books of author %s: %w", obj.ID, err)
	}
	for _, b := range books {
		b.Author = obj
	}
	return books, nil
}

// BookCount is the resolver for the bookCount field.
func (r *authorResolver) BookCount(ctx context.Context, obj *model.Author) (int, error) {
	count, err := r.BookStore.CountBooks(ctx, book.Filter{AuthorID: &obj.ID})
	if err != nil {
		return 0, fmt.Errorf("failed to count books of author %s: %w", obj.ID, err)
	}
	return count, nil
}

// Author is the resolver for the author field.
func (r *bookResolver) Author(ctx context.Context, obj *model.Book) (*model.Author, error) {
	if obj.Author != nil {
		return obj.Author, nil
	}

	a, err := r.AuthorStore.GetAuthorByID(ctx, obj.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author of book %s: %w", obj.ID, err)
	}
	return a, nil
}

// AddBook is the resolver for the addBook field.
func (r *mutationResolver) AddBook(ctx context.Context, title string, published int, authorName string, genres []string) (*model.Book, error) {
	unlock := r.lockAuthor(authorName)
	defer unlock()

	existing, err := r.findAuthor(ctx, authorName)
	if err != nil {
		return nil, err
	}

	// проверка авторизации до любой записи
	if auth.CurrentUser(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}

	args := map[string]any{
		"title":     title,
		"published": published,
		"author":    authorName,
		"genres":    genres,
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate book id")
	}
	newBook := &model.Book{
		ID:        bookID,
		Title:     title,
		Published: published,
		Genres:    model.UniqueGenres(genres),
	}

	if existing == nil {
		err = r.addBookWithNewAuthor(ctx, authorName, newBook, args)
	} else {
		err = r.addBookToAuthor(ctx, existing, newBook, args)
	}
	if err != nil {
		return nil, err
	}

	saved, err := r.BookStore.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved book %s: %w", bookID, err)
	}
	if err := r.populateAuthors(ctx, []*model.Book{saved}); err != nil {
		return nil, err
	}

	r.SubscriptionManager.Publish(subscription.TopicBookAdded, saved.Clone())
	r.log().Info("book added",
		slog.String("book_id", saved.ID),
		slog.String("author_id", saved.AuthorID))

	return saved, nil
}

// EditAuthor is the resolver for the editAuthor field.
func (r *mutationResolver) EditAuthor(ctx context.Context, name string, born int) (*model.Author, error) {
	unlock := r.lockAuthor(name)
	defer unlock()

	found, err := r.findAuthor(ctx, name)
	if err != nil {
		return nil, err
	}

	if auth.CurrentUser(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}

	// неизвестный автор - не ошибка
	if found == nil {
		return nil, nil
	}

	found.Born = &born
	if err := r.AuthorStore.SaveAuthor(ctx, found); err != nil {
		r.log().Warn("saving born year failed", slog.String("author", name), slog.String("error", err.Error()))
		return nil, domainerrors.Validation("saving born year failed", map[string]any{"name": name, "born": born}, err)
	}

	r.SubscriptionManager.Publish(subscription.TopicAuthorEdited, found.Clone())
	return found, nil
}

// CreateUser is the resolver for the createUser field.
func (r *mutationResolver) CreateUser(ctx context.Context, username string, favoriteGenre string) (*model.User, error) {
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate user id")
	}

	u := &model.User{
		ID:            userID,
		Username:      username,
		FavoriteGenre: &favoriteGenre,
	}
	if err := r.UserStore.SaveUser(ctx, u); err != nil {
		return nil, domainerrors.Validation("creating user failed",
			map[string]any{"username": username, "favoriteGenre": favoriteGenre}, err)
	}
	return u, nil
}

// Login is the resolver for the login field.
func (r *mutationResolver) Login(ctx context.Context, username string, password string) (*model.Token, error) {
	wrongCredentials := domainerrors.Unauthenticated("wrong credentials")

	if r.LoginLimiter != nil && !r.LoginLimiter.Allow(username) {
		r.log().Warn("login throttled", slog.String("username", username))
		return nil, wrongCredentials
	}

	u, err := r.UserStore.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// пароль проверяется и для неизвестного пользователя, чтобы время ответа не выдавало его отсутствие
	passwordOK := r.Credentials.Check(password)
	if u == nil || !passwordOK {
		return nil, wrongCredentials
	}

	token, err := r.Tokens.Issue(u)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue token")
	}
	return &model.Token{Value: token}, nil
}

// BookCount is the resolver for the bookCount field.
func (r *queryResolver) BookCount(ctx context.Context) (int, error) {
	count, err := r.BookStore.CountBooks(ctx, book.Filter{})
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// AuthorCount is the resolver for the authorCount field.
func (r *queryResolver) AuthorCount(ctx context.Context) (int, error) {
	count, err := r.AuthorStore.CountAuthors(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count authors: %w", err)
	}
	return count, nil
}

// AllBooks is the resolver for the allBooks field.
func (r *queryResolver) AllBooks(ctx context.Context, authorName *string, genres []string) ([]*model.Book, error) {
	// genres: [] не совпадает ни с одной книгой
	if genres != nil && len(genres) == 0 {
		return []*model.Book{}, nil
	}

	filter := book.Filter{Genres: genres}
	if authorName != nil {
		found, err := r.findAuthor(ctx, *authorName)
		if err != nil {
			return nil, err
		}
		// неизвестный автор - пустой список, в том числе вместе с genres
		if found == nil {
			return []*model.Book{}, nil
		}
		filter.AuthorID = &found.ID
	}

	books, err := r.BookStore.FindBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get books: %w", err)
	}
	if err := r.populateAuthors(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// AllAuthors is the resolver for the allAuthors field.
func (r *queryResolver) AllAuthors(ctx context.Context, name *string) ([]*model.Author, error) {
	authors, err := r.AuthorStore.FindAuthors(ctx, author.Filter{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to get authors: %w", err)
	}
	return authors, nil
}

// Me is the resolver for the me field.
func (r *queryResolver) Me(ctx context.Context) (*model.User, error) {
	return auth.CurrentUser(ctx), nil
}

// BookAdded is the resolver for the bookAdded field.
func (r *subscriptionResolver) BookAdded(ctx context.Context) (<-chan *model.Book, error) {
	events, cancel := r.SubscriptionManager.Subscribe(subscription.TopicBookAdded)
	return forward[*model.Book](ctx, events, cancel), nil
}

// AuthorEdited is the resolver for the authorEdited field.
func (r *subscriptionResolver) AuthorEdited(ctx context.Context) (<-chan *model.Author, error) {
	events, cancel := r.SubscriptionManager.Subscribe(subscription.TopicAuthorEdited)
	return forward[*model.Author](ctx, events, cancel), nil
}
