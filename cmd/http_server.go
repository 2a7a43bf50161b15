package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfmoura/book-management/internal"
	"github.com/gfmoura/book-management/internal/auth"
	authPostgres "github.com/gfmoura/book-management/internal/auth/postgres"
	"github.com/gfmoura/book-management/internal/book"
	bookPostgres "github.com/gfmoura/book-management/internal/book/postgres"
	"github.com/gfmoura/book-management/internal/core/events"
	"github.com/gfmoura/book-management/internal/rbac"
	rbacPostgres "github.com/gfmoura/book-management/internal/rbac/postgres"
	"github.com/gfmoura/book-management/internal/transport"
	"github.com/gfmoura/book-management/internal/transport/rest"
	"github.com/gfmoura/book-management/internal/user"
	userPostgres "github.com/gfmoura/book-management/internal/user/postgres"
	"github.com/gfmoura/book-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler *auth.Handler
	AuthService *auth.Service
	UserHandler *user.Handler
	BookHandler *book.Handler
	RBACHandler *rbac.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.AuthHandler, deps.AuthService,
		deps.UserHandler, deps.BookHandler, deps.RBACHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(log)
	registerAuditSubscriber(bus, log)

	sec := config.Security
	hasher := auth.NewPasswordHasher(sec.BCryptCost)
	lockout := auth.NewLockoutPolicy(sec.LockoutThreshold, sec.LockoutDuration)
	tokenGen := auth.NewJWTTokenGenerator(sec.JWTSecret, sec.JWTIssuer, sec.JWTAudience, sec.AccessTokenDuration)

	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, hasher, lockout, bus, log)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewRepository(gormDB)
	userService := user.NewService(userRepo, hasher, log)
	userHandler := user.NewHandler(userService)

	rbacRepo := rbacPostgres.NewRepository(gormDB)
	rbacService := rbac.NewService(rbacRepo, rbac.Limits{
		MaxRolesPerUser:       sec.MaxRolesPerUser,
		MaxPermissionsPerRole: sec.MaxPermissionsPerRole,
	}, bus, log)
	rbacHandler := rbac.NewHandler(rbacService)

	bookRepo := bookPostgres.NewBookRepository(gormDB)
	bookService := book.NewService(bookRepo, log)
	bookHandler := book.NewHandler(transport.NewBaseHandler(log), bookService)

	return &Dependencies{
		Config:      config,
		DB:          db,
		GormDB:      gormDB,
		Router:      chi.NewRouter(),
		Logger:      log,
		AuthHandler: authHandler,
		AuthService: authService,
		UserHandler: userHandler,
		BookHandler: bookHandler,
		RBACHandler: rbacHandler,
	}, nil
}

// initDB opens the pgx connection through sqlx for pool tuning, then layers
// gorm over the same *sql.DB so both see one pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm over db connection: %w", err)
	}

	return dbConn, gormDB, nil
}

// registerAuditSubscriber writes every security event to the structured log
// so lockouts and role changes leave an audit trail.
func registerAuditSubscriber(bus *events.EventBus, log *slog.Logger) {
	handler := func(ctx context.Context, event events.Event) error {
		log.Info("security event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload())
		return nil
	}

	for _, eventType := range []string{
		events.EventTypeLoginSucceeded,
		events.EventTypeLoginFailed,
		events.EventTypeAccountLocked,
		events.EventTypeAccountUnlocked,
		events.EventTypeRolesAssigned,
		events.EventTypePermsAssigned,
	} {
		bus.Subscribe(eventType, handler)
	}
}
