package wshandler

import (
	"context"
	"net/http"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/tracking"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	ws "github.com/hoblink/hoblink-backend/pkg/wshub"
)

type RideReader interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
}

// RiderWS streams a ride's driver positions to the requesting rider. The
// rider subscribes by ride id; the socket follows the driver assigned to
// that ride through the in-process feed.
type RiderWS struct {
	service     string
	rides       RideReader
	feed        *tracking.Feed
	connections *ws.ConnectionHub
	log         logger.Logger
}

func NewRiderWS(service string, rides RideReader, feed *tracking.Feed, connections *ws.ConnectionHub, log logger.Logger) *RiderWS {
	return &RiderWS{
		service:     service,
		rides:       rides,
		feed:        feed,
		connections: connections,
		log:         log,
	}
}

// Handle upgrades the connection for GET /ws/rides/{ride_id} and pushes
// location updates until the rider disconnects.
func (h *RiderWS) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rider_ws")
	user := models.UserFromContext(ctx)

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		http.Error(w, "invalid ride_id", http.StatusBadRequest)
		return
	}

	ride, err := h.rides.Get(ctx, rideID)
	if err != nil || ride.UserID != user.ID {
		http.Error(w, "ride not found", http.StatusNotFound)
		return
	}
	if ride.DriverID == nil {
		http.Error(w, "ride has no driver yet", http.StatusConflict)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(ctx, "websocket upgrade failed", err)
		return
	}

	ctx = wrap.WithRideID(ctx, rideID.String())
	conn := ws.NewConn(ctx, user.ID, wsConn)
	if err := h.connections.Add(conn); err != nil {
		h.log.Error(ctx, "failed to register connection", err)
		conn.Close()
		return
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Inc()
	defer func() {
		metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Dec()
		h.connections.Delete(user.ID)
	}()

	// positions for this ride only: the driver may carry several rides over
	// time, the socket follows one
	sub := h.feed.Subscribe(*ride.DriverID, func(update models.LocationUpdate) {
		if update.RideID != rideID {
			return
		}
		if err := conn.Send(update); err != nil {
			h.log.Debug(ctx, "failed to push location", "err", err.Error())
		}
	})
	defer sub.Unsubscribe()

	h.log.Info(ctx, "rider connected")

	// the read loop exists to notice disconnects; riders send nothing
	if err := conn.Listen(func(map[string]any) error { return nil }); err != nil {
		h.log.Debug(ctx, "rider connection closed", "err", err.Error())
	}
}
