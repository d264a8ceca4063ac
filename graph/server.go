package graph

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/VitaminP8/bookery/internal/auth"
	"github.com/VitaminP8/bookery/internal/logger"
	"github.com/VitaminP8/bookery/internal/user"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
)

type ServerOptions struct {
	Tokens *auth.TokenService
	Users  user.UserStorage
	Logger *slog.Logger
	// KeepAlive - интервал ping для websocket; 0 отключает.
	KeepAlive time.Duration
	// CheckOrigin для websocket; nil разрешает любой Origin.
	CheckOrigin func(r *http.Request) bool
}

// NewServer собирает gqlgen-сервер: HTTP-транспорты, websocket для подписок,
// представление ошибок и восстановление после паник.
func NewServer(es graphql.ExecutableSchema, opts ServerOptions) *handler.Server {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	srv := handler.New(es)

	srv.AddTransport(transport.Websocket{
		KeepAlivePingInterval: opts.KeepAlive,
		Upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		InitFunc: websocketInit(opts.Tokens, opts.Users, opts.Logger),
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.SetErrorPresenter(ErrorPresenter)
	srv.SetRecoverFunc(RecoverFunc(opts.Logger))

	return srv
}

// websocketInit берет токен из payload connection_init ("Authorization": "Bearer ...").
// Невалидный токен не рвет соединение, подписка идет без пользователя.
func websocketInit(tokens *auth.TokenService, users user.UserStorage, log *slog.Logger) transport.WebsocketInitFunc {
	return func(ctx context.Context, initPayload transport.InitPayload) (context.Context, *transport.InitPayload, error) {
		tokenStr := auth.ExtractToken(initPayload.Authorization())
		if tokenStr == "" || tokens == nil || users == nil {
			return ctx, &initPayload, nil
		}

		u, err := auth.Resolve(ctx, tokens, users, tokenStr)
		if err != nil {
			log.Debug("ignoring websocket token", slog.String("error", err.Error()))
			return ctx, &initPayload, nil
		}
		return auth.WithCurrentUser(ctx, u), &initPayload, nil
	}
}
