// internal/auth/context.go
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/VitaminP8/bookery/graph/model"
	"github.com/VitaminP8/bookery/internal/user"
)

type contextKey string

const currentUserKey = contextKey("currentUser")

// Сохраняет текущего пользователя в контексте
func WithCurrentUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// Достает текущего пользователя из контекста; nil - запрос анонимный
func CurrentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(currentUserKey).(*model.User)
	return u
}

// Resolve проверяет токен и находит пользователя. Любая ошибка означает анонимный запрос.
func Resolve(ctx context.Context, tokens *TokenService, users user.UserStorage, tokenStr string) (*model.User, error) {
	claims, err := tokens.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	return users.GetUserByID(ctx, claims.ID)
}

// Middleware извлекает пользователя из JWT и помещает его в context
func Middleware(tokens *TokenService, users user.UserStorage, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractTokenFromHeader(r.Header.Get("Authorization"))
			if tokenStr == "" {
				next.ServeHTTP(w, r) // неавторизованный доступ - пропускаем
				return
			}

			u, err := Resolve(r.Context(), tokens, users, tokenStr)
			if err != nil {
				// невалидный токен или пользователь удален - продолжаем без пользователя
				logger.Debug("ignoring bearer token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), u)))
		})
	}
}

// ExtractToken принимает значение заголовка Authorization или "Bearer "-строку из
// параметров websocket-соединения.
func ExtractToken(header string) string {
	return extractTokenFromHeader(header)
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
		return parts[1]
	}
	return ""
}
