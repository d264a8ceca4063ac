package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	domainerrors "github.com/VitaminP8/bookery/internal/errors"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ErrorPresenter переносит код доменной ошибки в extensions.code, аргументы ValidationError
// в extensions.invalidArgs, а ее причину в extensions.error.
func ErrorPresenter(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)

	var de *domainerrors.Error
	if !domainerrors.As(err, &de) {
		return gqlErr
	}

	gqlErr.Message = de.Message
	if gqlErr.Extensions == nil {
		gqlErr.Extensions = make(map[string]any)
	}
	gqlErr.Extensions["code"] = string(de.Code)

	if de.Code == domainerrors.CodeBadUserInput {
		if de.Details != nil {
			gqlErr.Extensions["invalidArgs"] = de.Details
		}
		if cause := de.Unwrap(); cause != nil {
			gqlErr.Extensions["error"] = cause.Error()
		}
	}
	return gqlErr
}

// RecoverFunc превращает панику резолвера в ошибку поля и пишет ее в лог.
func RecoverFunc(logger *slog.Logger) graphql.RecoverFunc {
	return func(ctx context.Context, p any) error {
		logger.Error("panic in resolver",
			slog.String("panic", fmt.Sprint(p)),
			slog.Any("path", graphql.GetPath(ctx)))
		return domainerrors.ErrInternal
	}
}
