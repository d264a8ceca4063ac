package graph

import (
	"log/slog"
	"sync"

	"github.com/VitaminP8/bookery/internal/auth"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/book"
	"github.com/VitaminP8/bookery/internal/keylock"
	"github.com/VitaminP8/bookery/internal/logger"
	"github.com/VitaminP8/bookery/internal/ratelimit"
	"github.com/VitaminP8/bookery/internal/subscription"
	"github.com/VitaminP8/bookery/internal/user"
)

// Resolver служит корневой точкой для всех резолверов.
// Здесь внедряются зависимости: хранилища, шина событий, выпуск токенов.
type Resolver struct {
	AuthorStore         author.AuthorStorage
	BookStore           book.BookStorage
	UserStore           user.UserStorage
	SubscriptionManager subscription.Manager
	Tokens              *auth.TokenService
	Credentials         *auth.Credentials
	LoginLimiter        *ratelimit.KeyedRateLimiter // nil - без ограничения
	Logger              *slog.Logger

	locksOnce   sync.Once
	authorLocks *keylock.KeyLock
}

// Query returns QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

// Mutation returns MutationResolver implementation.
func (r *Resolver) Mutation() MutationResolver { return &mutationResolver{r} }

// Subscription returns SubscriptionResolver implementation.
func (r *Resolver) Subscription() SubscriptionResolver { return &subscriptionResolver{r} }

// Author returns AuthorResolver implementation.
func (r *Resolver) Author() AuthorResolver { return &authorResolver{r} }

// Book returns BookResolver implementation.
func (r *Resolver) Book() BookResolver { return &bookResolver{r} }

type queryResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
type authorResolver struct{ *Resolver }
type bookResolver struct{ *Resolver }

// lockAuthor сериализует запись автора с данным именем (создание, добавление книги, правка).
func (r *Resolver) lockAuthor(name string) func() {
	r.locksOnce.Do(func() {
		if r.authorLocks == nil {
			r.authorLocks = keylock.New()
		}
	})
	return r.authorLocks.Lock(name)
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger == nil {
		return logger.Discard()
	}
	return r.Logger
}
