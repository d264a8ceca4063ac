package graph

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
	"github.com/VitaminP8/bookery/graph/model"
	"github.com/vektah/gqlparser/v2/ast"
)

// NewExecutableSchema creates an ExecutableSchema from the ResolverRoot interface.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{
		schema:    ParsedSchema(),
		resolvers: cfg.Resolvers,
	}
}

type Config struct {
	Resolvers ResolverRoot
}

type ResolverRoot interface {
	Author() AuthorResolver
	Book() BookResolver
	Mutation() MutationResolver
	Query() QueryResolver
	Subscription() SubscriptionResolver
}

type AuthorResolver interface {
	Books(ctx context.Context, obj *model.Author) ([]*model.Book, error)
	BookCount(ctx context.Context, obj *model.Author) (int, error)
}

type BookResolver interface {
	Author(ctx context.Context, obj *model.Book) (*model.Author, error)
}

type MutationResolver interface {
	AddBook(ctx context.Context, title string, published int, author string, genres []string) (*model.Book, error)
	EditAuthor(ctx context.Context, name string, born int) (*model.Author, error)
	CreateUser(ctx context.Context, username string, favoriteGenre string) (*model.User, error)
	Login(ctx context.Context, username string, password string) (*model.Token, error)
}

type QueryResolver interface {
	BookCount(ctx context.Context) (int, error)
	AuthorCount(ctx context.Context) (int, error)
	AllBooks(ctx context.Context, author *string, genres []string) ([]*model.Book, error)
	AllAuthors(ctx context.Context, name *string) ([]*model.Author, error)
	Me(ctx context.Context) (*model.User, error)
}

type SubscriptionResolver interface {
	BookAdded(ctx context.Context) (<-chan *model.Book, error)
	AuthorEdited(ctx context.Context) (<-chan *model.Author, error)
}

type executableSchema struct {
	schema    *ast.Schema
	resolvers ResolverRoot
}

var _ graphql.ExecutableSchema = (*executableSchema)(nil)

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

// Complexity: у схемы нет собственных оценок, используется расчет gqlgen по умолчанию.
func (e *executableSchema) Complexity(_, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := executionContext{opCtx, e}

	switch opCtx.Operation.Operation {
	case ast.Query:
		first := true
		return func(ctx context.Context) *graphql.Response {
			if !first {
				return nil
			}
			first = false

			data := ec._Query(ctx, opCtx.Operation.SelectionSet)
			var buf bytes.Buffer
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}

	case ast.Mutation:
		first := true
		return func(ctx context.Context) *graphql.Response {
			if !first {
				return nil
			}
			first = false

			data := ec._Mutation(ctx, opCtx.Operation.SelectionSet)
			var buf bytes.Buffer
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}

	case ast.Subscription:
		next := ec._Subscription(ctx, opCtx.Operation.SelectionSet)
		if next == nil {
			// подписка не зарегистрирована: один ответ с ошибками, затем конец потока
			return graphql.OneShot(&graphql.Response{Errors: graphql.GetErrors(ctx)})
		}
		var buf bytes.Buffer
		return func(ctx context.Context) *graphql.Response {
			buf.Reset()
			data := next(ctx)
			if data == nil {
				return nil
			}
			data.MarshalGQL(&buf)
			return &graphql.Response{Data: buf.Bytes()}
		}

	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}
}

type executionContext struct {
	*graphql.OperationContext
	*executableSchema
}

var (
	queryImplementors        = []string{"Query"}
	mutationImplementors     = []string{"Mutation"}
	subscriptionImplementors = []string{"Subscription"}
	authorImplementors       = []string{"Author"}
	bookImplementors         = []string{"Book"}
	userImplementors         = []string{"User"}
	tokenImplementors        = []string{"Token"}
)

var errIntrospectionDisabled = errors.New("introspection disabled")

// resolverFunc вычисляет значение поля; args уже приведены из литералов и переменных.
type resolverFunc func(ctx context.Context, args map[string]any) (any, error)

// fieldLookup находит вычислитель поля объекта; isResolver - поле требует обращения к резолверу.
type fieldLookup func(name string) (fn resolverFunc, isResolver bool)

func (ec *executionContext) _Query(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	q := ec.resolvers.Query()
	return ec.object(ctx, "Query", queryImplementors, sel, func(name string) (resolverFunc, bool) {
		switch name {
		case "bookCount":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return q.BookCount(ctx)
			}, true
		case "authorCount":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return q.AuthorCount(ctx)
			}, true
		case "allBooks":
			return func(ctx context.Context, args map[string]any) (any, error) {
				author, err := argOptionalString(args, "author")
				if err != nil {
					return nil, err
				}
				genres, err := argStrings(args, "genres")
				if err != nil {
					return nil, err
				}
				return q.AllBooks(ctx, author, genres)
			}, true
		case "allAuthors":
			return func(ctx context.Context, args map[string]any) (any, error) {
				name, err := argOptionalString(args, "name")
				if err != nil {
					return nil, err
				}
				return q.AllAuthors(ctx, name)
			}, true
		case "me":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return q.Me(ctx)
			}, true
		case "__schema", "__type":
			return func(context.Context, map[string]any) (any, error) {
				return nil, errIntrospectionDisabled
			}, false
		}
		return nil, false
	})
}

func (ec *executionContext) _Mutation(ctx context.Context, sel ast.SelectionSet) graphql.Marshaler {
	m := ec.resolvers.Mutation()
	return ec.object(ctx, "Mutation", mutationImplementors, sel, func(name string) (resolverFunc, bool) {
		switch name {
		case "addBook":
			return func(ctx context.Context, args map[string]any) (any, error) {
				title, err := argString(args, "title")
				if err != nil {
					return nil, err
				}
				published, err := argInt(args, "published")
				if err != nil {
					return nil, err
				}
				author, err := argString(args, "author")
				if err != nil {
					return nil, err
				}
				genres, err := argStrings(args, "genres")
				if err != nil {
					return nil, err
				}
				return m.AddBook(ctx, title, published, author, genres)
			}, true
		case "editAuthor":
			return func(ctx context.Context, args map[string]any) (any, error) {
				name, err := argString(args, "name")
				if err != nil {
					return nil, err
				}
				born, err := argInt(args, "born")
				if err != nil {
					return nil, err
				}
				return m.EditAuthor(ctx, name, born)
			}, true
		case "createUser":
			return func(ctx context.Context, args map[string]any) (any, error) {
				username, err := argString(args, "username")
				if err != nil {
					return nil, err
				}
				favoriteGenre, err := argString(args, "favoriteGenre")
				if err != nil {
					return nil, err
				}
				return m.CreateUser(ctx, username, favoriteGenre)
			}, true
		case "login":
			return func(ctx context.Context, args map[string]any) (any, error) {
				username, err := argString(args, "username")
				if err != nil {
					return nil, err
				}
				password, err := argString(args, "password")
				if err != nil {
					return nil, err
				}
				return m.Login(ctx, username, password)
			}, true
		}
		return nil, false
	})
}

// _Subscription регистрирует подписку сразу и возвращает функцию чтения следующего события.
// nil означает конец потока.
func (ec *executionContext) _Subscription(ctx context.Context, sel ast.SelectionSet) func(ctx context.Context) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, subscriptionImplementors)
	if len(fields) != 1 {
		graphql.AddErrorf(ctx, "must subscribe to exactly one stream")
		return nil
	}
	field := fields[0]

	fc := &graphql.FieldContext{
		Object:     "Subscription",
		Field:      field,
		Args:       field.ArgumentMap(ec.Variables),
		IsMethod:   true,
		IsResolver: true,
	}
	ctx = graphql.WithFieldContext(ctx, fc)

	s := ec.resolvers.Subscription()
	var recv func(ctx context.Context) (any, bool)

	switch field.Name {
	case "bookAdded":
		ch, err := s.BookAdded(ctx)
		if err != nil {
			graphql.AddError(ctx, err)
			return nil
		}
		recv = receiver(ch)
	case "authorEdited":
		ch, err := s.AuthorEdited(ctx)
		if err != nil {
			graphql.AddError(ctx, err)
			return nil
		}
		recv = receiver(ch)
	default:
		panic("unknown field " + strconv.Quote(field.Name))
	}

	return func(ctx context.Context) graphql.Marshaler {
		res, ok := recv(ctx)
		if !ok {
			return nil
		}
		ctx = graphql.WithFieldContext(ctx, &graphql.FieldContext{
			Object:     "Subscription",
			Field:      field,
			Args:       fc.Args,
			IsMethod:   true,
			IsResolver: true,
			Result:     res,
		})
		return graphql.WriterFunc(func(w io.Writer) {
			w.Write([]byte{'{'})
			graphql.MarshalString(field.Alias).MarshalGQL(w)
			w.Write([]byte{':'})
			ec.marshalValue(ctx, field.Definition.Type, field.Selections, res).MarshalGQL(w)
			w.Write([]byte{'}'})
		})
	}
}

func receiver[T any](ch <-chan T) func(ctx context.Context) (any, bool) {
	return func(ctx context.Context) (any, bool) {
		select {
		case res, ok := <-ch:
			if !ok {
				return nil, false
			}
			return res, true
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (ec *executionContext) _Author(ctx context.Context, sel ast.SelectionSet, obj *model.Author) graphql.Marshaler {
	ar := ec.resolvers.Author()
	return ec.object(ctx, "Author", authorImplementors, sel, func(name string) (resolverFunc, bool) {
		switch name {
		case "id":
			return value(obj.ID), false
		case "name":
			return value(obj.Name), false
		case "born":
			return value(obj.Born), false
		case "books":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return ar.Books(ctx, obj)
			}, true
		case "bookCount":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return ar.BookCount(ctx, obj)
			}, true
		}
		return nil, false
	})
}

func (ec *executionContext) _Book(ctx context.Context, sel ast.SelectionSet, obj *model.Book) graphql.Marshaler {
	br := ec.resolvers.Book()
	return ec.object(ctx, "Book", bookImplementors, sel, func(name string) (resolverFunc, bool) {
		switch name {
		case "id":
			return value(obj.ID), false
		case "title":
			return value(obj.Title), false
		case "published":
			return value(obj.Published), false
		case "genres":
			return value(obj.Genres), false
		case "author":
			return func(ctx context.Context, _ map[string]any) (any, error) {
				return br.Author(ctx, obj)
			}, true
		}
		return nil, false
	})
}

func (ec *executionContext) _User(ctx context.Context, sel ast.SelectionSet, obj *model.User) graphql.Marshaler {
	return ec.object(ctx, "User", userImplementors, sel, func(name string) (resolverFunc, bool) {
		switch name {
		case "id":
			return value(obj.ID), false
		case "username":
			return value(obj.Username), false
		case "favoriteGenre":
			return value(obj.FavoriteGenre), false
		}
		return nil, false
	})
}

func (ec *executionContext) _Token(ctx context.Context, sel ast.SelectionSet, obj *model.Token) graphql.Marshaler {
	return ec.object(ctx, "Token", tokenImplementors, sel, func(name string) (resolverFunc, bool) {
		if name == "value" {
			return value(obj.Value), false
		}
		return nil, false
	})
}

func value(v any) resolverFunc {
	return func(context.Context, map[string]any) (any, error) {
		return v, nil
	}
}

// object собирает выбранные поля объекта. Поля разрешаются по очереди, поэтому мутации
// выполняются в порядке запроса. Null в non-null поле обнуляет весь объект.
func (ec *executionContext) object(ctx context.Context, typeName string, implementors []string, sel ast.SelectionSet, lookup fieldLookup) graphql.Marshaler {
	fields := graphql.CollectFields(ec.OperationContext, sel, implementors)
	out := graphql.NewFieldSet(fields)
	var invalids uint32

	for i, field := range fields {
		if field.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(typeName)
			continue
		}

		fn, isResolver := lookup(field.Name)
		if fn == nil {
			panic("unknown field " + strconv.Quote(field.Name))
		}

		out.Values[i] = ec.field(ctx, typeName, field, fn, isResolver)
		if out.Values[i] == graphql.Null && field.Definition != nil && field.Definition.Type.NonNull {
			invalids++
		}
	}

	if invalids > 0 {
		return graphql.Null
	}
	return out
}

func (ec *executionContext) field(ctx context.Context, object string, field graphql.CollectedField, fn resolverFunc, isResolver bool) (ret graphql.Marshaler) {
	fc := &graphql.FieldContext{
		Object:     object,
		Field:      field,
		Args:       field.ArgumentMap(ec.Variables),
		IsMethod:   isResolver,
		IsResolver: isResolver,
	}
	ctx = graphql.WithFieldContext(ctx, fc)

	defer func() {
		if r := recover(); r != nil {
			ec.Error(ctx, ec.Recover(ctx, r))
			ret = graphql.Null
		}
	}()

	var (
		res any
		err error
	)
	if isResolver && ec.ResolverMiddleware != nil {
		res, err = ec.ResolverMiddleware(ctx, func(rctx context.Context) (any, error) {
			return fn(rctx, fc.Args)
		})
	} else {
		res, err = fn(ctx, fc.Args)
	}
	if err != nil {
		graphql.AddError(ctx, err)
		return graphql.Null
	}
	fc.Result = res

	return ec.marshalValue(ctx, field.Definition.Type, field.Selections, res)
}

// marshalValue сериализует значение по типу поля из схемы.
func (ec *executionContext) marshalValue(ctx context.Context, typ *ast.Type, sel ast.SelectionSet, v any) graphql.Marshaler {
	if isNil(v) {
		if typ.NonNull && !graphql.HasFieldError(ctx, graphql.GetFieldContext(ctx)) {
			graphql.AddErrorf(ctx, "must not be null")
		}
		return graphql.Null
	}

	if typ.Elem != nil {
		return ec.marshalList(ctx, typ.Elem, sel, v)
	}

	switch typ.NamedType {
	case "String":
		switch s := v.(type) {
		case string:
			return graphql.MarshalString(s)
		case *string:
			return graphql.MarshalString(*s)
		}
	case "ID":
		if s, ok := v.(string); ok {
			return graphql.MarshalID(s)
		}
	case "Int":
		switch n := v.(type) {
		case int:
			return graphql.MarshalInt(n)
		case *int:
			return graphql.MarshalInt(*n)
		}
	case "Book":
		if b, ok := v.(*model.Book); ok {
			return ec._Book(ctx, sel, b)
		}
	case "Author":
		if a, ok := v.(*model.Author); ok {
			return ec._Author(ctx, sel, a)
		}
	case "User":
		if u, ok := v.(*model.User); ok {
			return ec._User(ctx, sel, u)
		}
	case "Token":
		if t, ok := v.(*model.Token); ok {
			return ec._Token(ctx, sel, t)
		}
	}

	graphql.AddErrorf(ctx, "unexpected %T value for type %s", v, typ.String())
	return graphql.Null
}

func (ec *executionContext) marshalList(ctx context.Context, elem *ast.Type, sel ast.SelectionSet, v any) graphql.Marshaler {
	var items []any
	switch list := v.(type) {
	case []*model.Book:
		items = make([]any, len(list))
		for i := range list {
			items[i] = list[i]
		}
	case []*model.Author:
		items = make([]any, len(list))
		for i := range list {
			items[i] = list[i]
		}
	case []string:
		items = make([]any, len(list))
		for i := range list {
			items[i] = list[i]
		}
	default:
		graphql.AddErrorf(ctx, "unexpected %T value for list", v)
		return graphql.Null
	}

	ret := make(graphql.Array, len(items))
	for i := range items {
		idx := i
		itemCtx := graphql.WithFieldContext(ctx, &graphql.FieldContext{
			Index:  &idx,
			Result: items[i],
		})
		ret[i] = ec.marshalValue(itemCtx, elem, sel, items[i])
		if ret[i] == graphql.Null && elem.NonNull {
			return graphql.Null
		}
	}
	return ret
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
