package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/VitaminP8/bookery/graph/model"
	domainerrors "github.com/VitaminP8/bookery/internal/errors"
	"github.com/VitaminP8/bookery/internal/id"
	"github.com/VitaminP8/bookery/internal/storage"
	"github.com/VitaminP8/bookery/internal/subscription"
)

// findAuthor возвращает nil без ошибки, если автора с таким именем нет.
func (r *Resolver) findAuthor(ctx context.Context, name string) (*model.Author, error) {
	a, err := r.AuthorStore.FindAuthorByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find author %q: %w", name, err)
	}
	return a, nil
}

// linkBook - единственное место, где связываются книга и автор: Book.AuthorID и Author.BookIDs
// меняются вместе.
func linkBook(a *model.Author, b *model.Book) {
	b.AuthorID = a.ID
	for _, bookID := range a.BookIDs {
		if bookID == b.ID {
			return
		}
	}
	a.BookIDs = append(a.BookIDs, b.ID)
}

// addBookWithNewAuthor сохраняет сначала автора, потом книгу. Если книга не сохранилась,
// только что созданный автор удаляется.
func (r *Resolver) addBookWithNewAuthor(ctx context.Context, name string, b *model.Book, args map[string]any) error {
	authorID, err := id.Generate(id.PrefixAuthor)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate author id")
	}

	newAuthor := &model.Author{ID: authorID, Name: name}
	linkBook(newAuthor, b)

	if err := r.AuthorStore.SaveAuthor(ctx, newAuthor); err != nil {
		r.log().Warn("saving author failed", slog.String("author", name), slog.String("error", err.Error()))
		return domainerrors.Validation("saving author failed", args, err)
	}

	if err := r.BookStore.SaveBook(ctx, b); err != nil {
		if delErr := r.AuthorStore.DeleteAuthor(ctx, newAuthor.ID); delErr != nil {
			r.log().Error("compensating author delete failed",
				slog.String("author_id", newAuthor.ID),
				slog.String("error", delErr.Error()))
			return domainerrors.Validation("saving book failed, author was saved without it", args, errors.Join(err, delErr))
		}
		r.log().Warn("saving book failed, new author removed",
			slog.String("author_id", newAuthor.ID),
			slog.String("error", err.Error()))
		return domainerrors.Validation("saving book failed", args, err)
	}
	return nil
}

// addBookToAuthor сохраняет книгу, затем автора с обновленным списком книг.
func (r *Resolver) addBookToAuthor(ctx context.Context, a *model.Author, b *model.Book, args map[string]any) error {
	if a.ID == "" || a.Name == "" {
		return domainerrors.Validation("saving book failed", args, errors.New("author is missing required fields"))
	}
	linkBook(a, b)

	if err := r.BookStore.SaveBook(ctx, b); err != nil {
		r.log().Warn("saving book failed", slog.String("author_id", a.ID), slog.String("error", err.Error()))
		return domainerrors.Validation("saving book failed", args, err)
	}
	if err := r.AuthorStore.SaveAuthor(ctx, a); err != nil {
		// книга уже сохранена; Author.books отстает, живые запросы по Book.author это не затрагивает
		r.log().Error("saving author books failed",
			slog.String("author_id", a.ID),
			slog.String("book_id", b.ID),
			slog.String("error", err.Error()))
		return domainerrors.Validation("book saved, author book list not updated", args, err)
	}
	return nil
}

// populateAuthors заполняет Book.Author, читая каждого автора один раз.
func (r *Resolver) populateAuthors(ctx context.Context, books []*model.Book) error {
	authors := make(map[string]*model.Author)
	for _, b := range books {
		a, ok := authors[b.AuthorID]
		if !ok {
			var err error
			a, err = r.AuthorStore.GetAuthorByID(ctx, b.AuthorID)
			if err != nil {
				return fmt.Errorf("failed to get author of book %s: %w", b.ID, err)
			}
			authors[b.AuthorID] = a
		}
		b.Author = a
	}
	return nil
}

// forward переводит события шины в типизированный канал подписки.
// Канал закрывается, когда ctx завершен или шина закрыла подписку.
func forward[T any](ctx context.Context, events <-chan subscription.Event, cancel func()) <-chan T {
	out := make(chan T, 1)

	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload, ok := ev.Payload.(T)
				if !ok {
					continue
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
