package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoblink/hoblink-backend/config"
	httpserver "github.com/hoblink/hoblink-backend/internal/adapter/http/server"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	postgresclient "github.com/hoblink/hoblink-backend/pkg/postgres"
)

// SessionService serves sign-up, sign-in, token refresh and sign-out.
type SessionService struct {
	postgresDB *postgresclient.PostgreDB
	httpServer *httpserver.API

	cfg *config.Config
	log logger.Logger
}

func NewSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*SessionService, error) {
	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	sessionStore := newSessionStore(db, cfg, log)

	server, err := httpserver.New(cfg, httpserver.Deps{Auth: sessionStore}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &SessionService{
		postgresDB: db,
		httpServer: server,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *SessionService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "session service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "session service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down", "signal", sig.String())
		return nil
	}
}

func (s *SessionService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown http server", err)
	}

	s.postgresDB.Pool.Close()
}
