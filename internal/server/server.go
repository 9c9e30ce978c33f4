package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nexcharge/apiserver/config"
	"github.com/nexcharge/apiserver/internal/auth"
	"github.com/nexcharge/apiserver/internal/db"
	"github.com/nexcharge/apiserver/internal/handlers"
	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/internal/mq"
	"github.com/nexcharge/apiserver/internal/services"
	"github.com/nexcharge/apiserver/internal/store"
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	queue      *mq.MQ
	log        logging.Logger
}

// Deps are the collaborators the router needs.
type Deps struct {
	Accounts       handlers.AccountService
	Chargers       handlers.ChargerService
	Tokens         handlers.TokenVerifier
	AllowedOrigins []string
	Log            logging.Logger
}

// New opens the database and message queue and wires the HTTP stack.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret,
		auth.WithTTL(cfg.Auth.TokenTTL),
		auth.WithPreviousSecrets(cfg.Auth.PreviousSecrets...),
	)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "token issuer ready",
		"ttl", tokens.TTL().String(),
		"previous_secrets", len(cfg.Auth.PreviousSecrets),
	)

	dbConn, err := db.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}

	var events services.EventPublisher
	if queue != nil {
		events = services.NewChargerEvents(queue, cfg.MQ.ChargerChannel)
		log.Info(ctx, "charger events enabled", "backend", cfg.MQ.Backend, "channel", cfg.MQ.ChargerChannel)
	}

	accounts := services.NewAccountService(
		store.NewUserRepository(dbConn),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		tokens,
	)
	chargers := services.NewChargerService(store.NewChargerRepository(dbConn), events, log)

	router := newRouter(Deps{
		Accounts:       accounts,
		Chargers:       chargers,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Log:            log,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		queue:      queue,
		log:        log,
	}, nil
}

func newRouter(deps Deps) chi.Router {
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	authMiddleware := handlers.RequireAuth(deps.Tokens)
	routes := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, deps.Accounts, authMiddleware, deps.Log)
		})
		r.Route("/chargers", func(r chi.Router) {
			handlers.ChargerRouter(r, deps.Chargers, authMiddleware, deps.Log)
		})
	}

	router.Get("/", handlers.Banner)
	router.Get("/healthz", handlers.Healthz)
	routes(router)
	router.Route("/api", routes)

	return router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the queue and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if qerr := s.queue.Close(); qerr != nil {
			s.log.Warn(ctx, "close message queue", "error", qerr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
