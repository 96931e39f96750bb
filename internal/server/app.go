// Package server initializes and runs the jobtracker application: it opens
// the database and the session store, runs migrations, builds the services
// and serves HTTP until it receives a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/config"
	"github.com/dmitrijs2005/jobtracker/internal/server/csrf"
	"github.com/dmitrijs2005/jobtracker/internal/server/httpapi"
	"github.com/dmitrijs2005/jobtracker/internal/server/metrics"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/dmitrijs2005/jobtracker/internal/server/session"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	http   *httpapi.Server
}

// NewApp validates c and builds every dependency of the server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("redis ping error: %w", err)
	}

	us, err := services.NewUserService(db, rm)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, err
	}
	js := services.NewJobService(db, rm)

	sessions := session.NewManager(session.NewRedisStore(rdb, ""), session.Config{
		Secret: []byte(c.SessionSecret),
		TTL:    c.SessionTTL,
		Secure: c.SecureCookies,
	}, logger)

	guard := csrf.New(csrf.Config{
		Secret:                []byte(c.CSRFSecret),
		ProtectedContentTypes: c.CSRFProtectedContentTypes,
		DevelopmentMode:       c.CSRFDevelopmentMode,
		Secure:                c.SecureCookies,
	}, logger)
	if c.CSRFDevelopmentMode {
		logger.Warn(ctx, "CSRF development mode is on: forged requests are logged, not rejected")
	}

	srv, err := httpapi.NewServer(c.EndpointAddrHTTP, httpapi.Deps{
		Users:                  us,
		Jobs:                   js,
		Sessions:               sessions,
		CSRF:                   guard,
		Metrics:                metrics.New(),
		Logger:                 logger,
		LogonAttemptsPerMinute: c.LogonAttemptsPerMinute,
		TrustProxy:             c.TrustProxy,
	})
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, redis: rdb, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or the server fails, then releases the
// database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
