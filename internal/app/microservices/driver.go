package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoblink/hoblink-backend/config"
	"github.com/hoblink/hoblink-backend/internal/adapter/http/handler"
	httpserver "github.com/hoblink/hoblink-backend/internal/adapter/http/server"
	wshandler "github.com/hoblink/hoblink-backend/internal/adapter/http/ws"
	"github.com/hoblink/hoblink-backend/internal/adapter/postgres"
	rabbitbroker "github.com/hoblink/hoblink-backend/internal/adapter/rabbit"
	"github.com/hoblink/hoblink-backend/internal/service/driver"
	"github.com/hoblink/hoblink-backend/internal/service/ride"
	"github.com/hoblink/hoblink-backend/internal/service/tracking"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	postgresclient "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/rabbit"
	"github.com/hoblink/hoblink-backend/pkg/trm"
	ws "github.com/hoblink/hoblink-backend/pkg/wshub"
)

// DriverService serves driver registration, availability, the driver side
// of the ride lifecycle and location ingest. Recorded positions are
// persisted and fanned out to the ride service over RabbitMQ.
type DriverService struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	httpServer *httpserver.API

	retention *tracking.RetentionJob

	cfg *config.Config
	log logger.Logger
}

func NewDriver(ctx context.Context, cfg *config.Config, log logger.Logger) (*DriverService, error) {
	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	rabbitMQ, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "failed to setup rabbitmq", err)
		return nil, err
	}

	broker := rabbitbroker.NewBroker(rabbitMQ, string(cfg.Mode), log)
	if err := broker.Setup(ctx); err != nil {
		log.Error(ctx, "failed to declare rabbitmq topology", err)
		return nil, err
	}

	rideRepo := postgres.NewRideRepo(db.Pool)
	driverRepo := postgres.NewDriverRepo(db.Pool)
	trackingRepo := postgres.NewTrackingRepo(db.Pool)

	sessionStore := newSessionStore(db, cfg, log)
	driverSvc := driver.NewService(driverRepo, log)
	rideSvc := ride.NewService(rideRepo, driverRepo, broker, trm.New(db.Pool), log)
	recorder := tracking.NewRecorder(trackingRepo, rideRepo, broker, log)
	retention := tracking.NewRetentionJob(trackingRepo, cfg.Tracking.Retention, cfg.Tracking.PruneInterval, log)

	driverHandler := handler.NewDriver(driverSvc, rideSvc, recorder, log)
	driverWS := wshandler.NewDriverWS(string(cfg.Mode), driverSvc, recorder, ws.NewConnHub(log), log)

	server, err := httpserver.New(cfg, httpserver.Deps{
		Auth:     sessionStore,
		Driver:   driverHandler,
		DriverWS: driverWS,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &DriverService{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		httpServer: server,
		retention:  retention,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *DriverService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "driver service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	go s.retention.Run(ctx)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "driver service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down", "signal", sig.String())
		return nil
	}
}

func (s *DriverService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown http server", err)
	}

	if err := s.rabbitMQ.Close(ctx); err != nil {
		s.log.Warn(ctx, "failed to close rabbitmq connection", "error", err.Error())
	}

	s.postgresDB.Pool.Close()
}
