package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoblink/hoblink-backend/config"
	"github.com/hoblink/hoblink-backend/internal/app/microservices"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
)

var (
	ErrInvalidMode           = errors.New("invalid service mode")
	ErrServiceNotInitialized = errors.New("service not initialized")
)

// Service is a runnable microservice. Start blocks until the service
// stops or ctx is cancelled.
type Service interface {
	Start(ctx context.Context) error
}

type App struct {
	mode    types.ServiceMode
	service Service

	cfg *config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{
		mode: cfg.Mode,
		cfg:  cfg,
		log:  log,
	}

	if err := app.initService(ctx); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.service == nil {
		return ErrServiceNotInitialized
	}
	return a.service.Start(ctx)
}

func (a *App) initService(ctx context.Context) error {
	var (
		service Service
		err     error
	)

	switch a.mode {
	case types.SessionService:
		service, err = microservices.NewSession(ctx, a.cfg, a.log)
	case types.RideService:
		service, err = microservices.NewRide(ctx, a.cfg, a.log)
	case types.DriverService:
		service, err = microservices.NewDriver(ctx, a.cfg, a.log)
	case types.AdminService:
		service, err = microservices.NewAdmin(ctx, a.cfg, a.log)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMode, a.mode)
	}
	if err != nil {
		return fmt.Errorf("failed to init %s: %w", a.mode, err)
	}

	a.service = service
	return nil
}
