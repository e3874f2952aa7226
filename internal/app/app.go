package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminotp/internal/pkg/hash"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/messaging"
	"github.com/shandysiswandi/adminotp/internal/pkg/router"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
	"github.com/shandysiswandi/adminotp/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	sessions  session.Store
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initSessionStore()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
