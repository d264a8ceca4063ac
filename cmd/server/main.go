package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/VitaminP8/bookery/graph"
	"github.com/VitaminP8/bookery/internal/auth"
	"github.com/VitaminP8/bookery/internal/author"
	"github.com/VitaminP8/bookery/internal/book"
	"github.com/VitaminP8/bookery/internal/config"
	"github.com/VitaminP8/bookery/internal/logger"
	"github.com/VitaminP8/bookery/internal/ratelimit"
	badgerstore "github.com/VitaminP8/bookery/internal/storage/badger"
	"github.com/VitaminP8/bookery/internal/storage/memory"
	"github.com/VitaminP8/bookery/internal/storage/postgres"
	"github.com/VitaminP8/bookery/internal/subscription"
	"github.com/VitaminP8/bookery/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "GraphQL API over books, authors and users",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().String("storage", config.StorageMemory, "Тип хранилища: memory, postgres или badger")
	cmd.Flags().String("addr", ":8080", "Адрес HTTP-сервера")
	_ = v.BindPFlag("storage", cmd.Flags().Lookup("storage"))
	_ = v.BindPFlag("http_addr", cmd.Flags().Lookup("addr"))

	return cmd
}

type stores struct {
	authors author.AuthorStorage
	books   book.BookStorage
	users   user.UserStorage
	close   func() error
}

func openStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		if err := postgres.InitDB(cfg.Database); err != nil {
			return nil, err
		}
		if err := postgres.Migrate(); err != nil {
			_ = postgres.CloseDB()
			return nil, err
		}

		log.Info("Используется PostgreSQL хранилище", slog.String("host", cfg.Database.Host))
		return &stores{
			authors: postgres.NewAuthorPostgresStorage(),
			books:   postgres.NewBookPostgresStorage(),
			users:   postgres.NewUserPostgresStorage(),
			close:   postgres.CloseDB,
		}, nil

	case config.StorageBadger:
		db, err := badgerstore.Open(cfg.Badger)
		if err != nil {
			return nil, err
		}

		log.Info("Используется badger хранилище", slog.String("dir", cfg.Badger.Dir), slog.Bool("in_memory", cfg.Badger.InMemory))
		return &stores{
			authors: badgerstore.NewAuthorBadgerStorage(db),
			books:   badgerstore.NewBookBadgerStorage(db),
			users:   badgerstore.NewUserBadgerStorage(db),
			close:   db.Close,
		}, nil

	case config.StorageMemory:
		log.Info("Используется in-memory хранилище")
		return &stores{
			authors: memory.NewAuthorMemoryStorage(),
			books:   memory.NewBookMemoryStorage(),
			users:   memory.NewUserMemoryStorage(),
			close:   func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", cfg.Storage)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
	})

	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	policy, err := subscription.ParsePolicy(cfg.Events.Policy)
	if err != nil {
		return err
	}
	events := subscription.NewSubscriptionManager(
		subscription.WithBuffer(cfg.Events.Buffer),
		subscription.WithPolicy(policy),
		subscription.WithLogger(log),
	)

	credentials, err := auth.NewCredentials(cfg.Auth.LoginPassword)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Инициализация резолвера
	resolver := &graph.Resolver{
		AuthorStore:         st.authors,
		BookStore:           st.books,
		UserStore:           st.users,
		SubscriptionManager: events,
		Tokens:              tokens,
		Credentials:         credentials,
		LoginLimiter:        ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, 10*time.Minute),
		Logger:              log,
	}

	gqlServer := graph.NewServer(graph.NewExecutableSchema(graph.Config{Resolvers: resolver}), graph.ServerOptions{
		Tokens:      tokens,
		Users:       st.users,
		Logger:      log,
		KeepAlive:   10 * time.Second,
		CheckOrigin: originChecker(cfg.Server.CORSOrigins),
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/schema.graphql", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.SchemaSDL))
	})
	// Middleware извлекает пользователя из JWT и сохраняет его в context
	router.Handle("/query", auth.Middleware(tokens, st.users, log)(gqlServer))
	// Страница с тестовым интерфейсом Playground
	router.Handle("/", playground.Handler("GraphQL Playground", "/query"))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Сервер запущен", slog.String("addr", cfg.Server.Addr), slog.String("storage", cfg.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка сервера: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Завершение...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка при завершении сервера: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Сервер остановлен корректно")
	return nil
}

// originChecker проверяет Origin websocket-соединений по тем же правилам, что и CORS.
func originChecker(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return nil
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
