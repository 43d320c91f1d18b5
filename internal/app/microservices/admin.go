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
	"github.com/hoblink/hoblink-backend/internal/adapter/postgres"
	rabbitbroker "github.com/hoblink/hoblink-backend/internal/adapter/rabbit"
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/admin"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	postgresclient "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/rabbit"
	"github.com/hoblink/hoblink-backend/pkg/trm"
)

// AdminService serves platform overview, listings and driver verification.
// It also tails the ride status queue so every transition lands in the
// admin audit log.
type AdminService struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	httpServer *httpserver.API

	broker *rabbitbroker.Broker

	cfg *config.Config
	log logger.Logger
}

func NewAdmin(ctx context.Context, cfg *config.Config, log logger.Logger) (*AdminService, error) {
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
	profileRepo := postgres.NewProfileRepo(db.Pool)

	sessionStore := newSessionStore(db, cfg, log)
	adminSvc := admin.NewService(rideRepo, driverRepo, profileRepo, trm.New(db.Pool), log)

	adminHandler := handler.NewAdmin(adminSvc, log)

	server, err := httpserver.New(cfg, httpserver.Deps{
		Auth:  sessionStore,
		Admin: adminHandler,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &AdminService{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		httpServer: server,
		broker:     broker,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *AdminService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "admin service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	go func() {
		err := s.broker.ConsumeRideStatus(ctx, func(ctx context.Context, ride models.Ride) error {
			s.log.Info(ctx, "ride status changed",
				"ride_id", ride.ID.String(),
				"status", string(ride.Status),
			)
			return nil
		})
		if err != nil {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "admin service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down", "signal", sig.String())
		return nil
	}
}

func (s *AdminService) close(ctx context.Context) {
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
