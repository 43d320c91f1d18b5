package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hoblink/hoblink-backend/config"
	"github.com/hoblink/hoblink-backend/internal/adapter/http/handler"
	"github.com/hoblink/hoblink-backend/internal/adapter/http/middleware"
	wshandler "github.com/hoblink/hoblink-backend/internal/adapter/http/ws"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

// API is one microservice's HTTP surface. The mode decides which handler
// set is mounted; everything else (health, metrics, swagger, middleware
// chain) is shared.
type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

// handlers holds the per-mode handler set; only the fields for the active
// mode are populated.
type handlers struct {
	health *handler.Health

	auth     *handler.Auth
	ride     *handler.Ride
	driver   *handler.Driver
	admin    *handler.Admin
	driverWS *wshandler.DriverWS
	riderWS  *wshandler.RiderWS
}

// Deps carries everything the active mode might mount.
type Deps struct {
	Auth     handler.AuthService
	Ride     *handler.Ride
	Driver   *handler.Driver
	Admin    *handler.Admin
	DriverWS *wshandler.DriverWS
	RiderWS  *wshandler.RiderWS
}

func New(cfg *config.Config, deps Deps, log logger.Logger) (*API, error) {
	if deps.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	routes := &handlers{
		health: handler.NewHealth(string(cfg.Mode), log),
	}

	var port string
	switch cfg.Mode {
	case types.SessionService:
		port = cfg.Services.SessionService
		routes.auth = handler.NewAuth(deps.Auth, log)
	case types.RideService:
		port = cfg.Services.RideService
		routes.ride = deps.Ride
		routes.riderWS = deps.RiderWS
	case types.DriverService:
		port = cfg.Services.DriverService
		routes.driver = deps.Driver
		routes.driverWS = deps.DriverWS
	case types.AdminService:
		port = cfg.Services.AdminService
		routes.admin = deps.Admin
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(deps.Auth, log)
	mux := http.NewServeMux()
	setupRoutes(mux, routes, mid, cfg.Mode, log)

	api := &API{
		mode:   cfg.Mode,
		mux:    mux,
		routes: routes,
		m:      mid,
		addr:   fmt.Sprintf(serverIPAddress, "0.0.0.0", port),
		log:    log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr, "mode", string(a.mode))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "HTTP server shut down")

	return nil
}

// withMiddleware applies the shared middleware chain to the mux.
func (a *API) withMiddleware() http.Handler {
	chain := a.m.Metrics(string(a.mode))(a.mux)
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Auth(chain))))
}
