// Package server wires the auth server together: storage backend, optional
// Redis refresh token store, services and the gRPC endpoint, and runs it
// until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/logging"
	"github.com/dmitrijs2005/gqlauth/internal/server/config"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gqlauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gqlauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gqlauth/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	redis        redis.UniversalClient
	userService  *services.UserService
	tokenService *services.TokenService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(c.Environment, c.LogLevel)
	app := &App{config: c, logger: logger}

	rm, tx, err := app.initStorage(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	if c.SecretKey == "" {
		logger.Warn(ctx, "secret key is not set, token issuance will fail")
	}

	ts, err := services.NewTokenService(tx, rm, c, logger.With("module", "tokens"))
	if err != nil {
		app.close()
		return nil, err
	}

	app.tokenService = ts
	app.userService = services.NewUserService(tx, rm, ts, c, logger.With("module", "users"))

	return app, nil
}

func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, dbx.Transactor, error) {
	c := app.config

	var (
		rm repomanager.RepositoryManager
		tx dbx.Transactor
	)

	switch c.StorageBackend {
	case config.BackendMemory:
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		mem := repomanager.NewMemoryRepositoryManager(common.SystemClock{})
		seedSchemas(mem, c)
		if c.SchemaID == 0 {
			app.logger.Warn(ctx, "schema id is not set, logins will fail with invalid schema")
		}
		rm = mem
		tx = dbx.NoTx{}

	default:
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		if err := db.PingContext(ctx); err != nil {
			return nil, nil, fmt.Errorf("db ping error: %w", err)
		}

		rm, err = repomanager.NewPostgresRepositoryManager(db)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}
		tx = dbx.NewSQLTransactor(db, nil)
	}

	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		app.redis = client

		store := refreshtokens.NewRedisRepository(client, c.RedisKeyPrefix, common.SystemClock{})
		if err := store.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis ping error: %w", err)
		}

		rm = &repomanager.WithRedisRefreshTokens{RepositoryManager: rm, Redis: store}
		app.logger.Info(ctx, "refresh tokens are stored in redis", "addr", c.RedisAddr)
	}

	return rm, tx, nil
}

// seedSchemas registers the schemas named in c. The memory backend has no
// schema table to read them from.
func seedSchemas(m *repomanager.MemoryRepositoryManager, c *config.Config) {
	if c.SchemaID != 0 {
		m.SchemasRepo.Add(models.Schema{ID: c.SchemaID, Name: "Public Schema"})
	}
	for handle, id := range c.GranularSchemas {
		if id != 0 && id != c.SchemaID {
			m.SchemasRepo.Add(models.Schema{ID: id, Name: handle})
		}
	}
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.tokenService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err)
	}
}
