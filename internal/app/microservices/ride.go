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
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/ride"
	"github.com/hoblink/hoblink-backend/internal/service/tracking"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	postgresclient "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/rabbit"
	"github.com/hoblink/hoblink-backend/pkg/trm"
	ws "github.com/hoblink/hoblink-backend/pkg/wshub"
)

// RideService serves ride booking, lifecycle and the rider tracking feed.
// Driver positions arrive over the location fanout exchange and are pushed
// to subscribed riders through WebSockets.
type RideService struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	httpServer *httpserver.API

	broker *rabbitbroker.Broker
	feed   *tracking.Feed

	cfg *config.Config
	log logger.Logger
}

func NewRide(ctx context.Context, cfg *config.Config, log logger.Logger) (*RideService, error) {
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
	rideSvc := ride.NewService(rideRepo, driverRepo, broker, trm.New(db.Pool), log)
	recorder := tracking.NewRecorder(trackingRepo, rideRepo, nil, log)
	feed := tracking.NewFeed()

	rideHandler := handler.NewRide(rideSvc, recorder, log)
	riderWS := wshandler.NewRiderWS(string(cfg.Mode), rideSvc, feed, ws.NewConnHub(log), log)

	server, err := httpserver.New(cfg, httpserver.Deps{
		Auth:    sessionStore,
		Ride:    rideHandler,
		RiderWS: riderWS,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &RideService{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		httpServer: server,
		broker:     broker,
		feed:       feed,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *RideService) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "ride service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	go func() {
		err := s.broker.ConsumeLocations(ctx, func(ctx context.Context, update models.LocationUpdate) {
			s.feed.Apply(update)
		})
		if err != nil {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "ride service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shutting down", "signal", sig.String())
		return nil
	}
}

func (s *RideService) close(ctx context.Context) {
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
