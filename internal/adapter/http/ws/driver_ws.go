package wshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	ws "github.com/hoblink/hoblink-backend/pkg/wshub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the bearer token is the access control; origin is not
	CheckOrigin: func(r *http.Request) bool { return true },
}

type DriverResolver interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
}

type LocationRecorder interface {
	Record(ctx context.Context, rideID, driverID uuid.UUID, lat, lng float64, recordedAt time.Time) error
}

// DriverWS is the position ingest socket. A connected driver streams
// location messages and each one lands in the tracking log before fanning
// out to riders.
type DriverWS struct {
	service     string
	drivers     DriverResolver
	recorder    LocationRecorder
	connections *ws.ConnectionHub
	log         logger.Logger
}

func NewDriverWS(service string, drivers DriverResolver, recorder LocationRecorder, connections *ws.ConnectionHub, log logger.Logger) *DriverWS {
	return &DriverWS{
		service:     service,
		drivers:     drivers,
		recorder:    recorder,
		connections: connections,
		log:         log,
	}
}

// Handle upgrades the connection and consumes location messages until the
// driver disconnects. Message shape:
//
//	{"ride_id": "...", "lat": -26.2, "lng": 28.04, "recorded_at": "..."}
func (h *DriverWS) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "driver_ws")
	user := models.UserFromContext(ctx)

	d, err := h.drivers.GetByUser(ctx, user.ID)
	if err != nil {
		http.Error(w, "driver record required", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(ctx, "websocket upgrade failed", err)
		return
	}

	ctx = wrap.WithDriverID(ctx, d.ID.String())
	conn := ws.NewConn(ctx, d.ID, wsConn)
	if err := h.connections.Add(conn); err != nil {
		h.log.Error(ctx, "failed to register connection", err)
		conn.Close()
		return
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Inc()
	defer func() {
		metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Dec()
		h.connections.Delete(d.ID)
	}()

	h.log.Info(ctx, "driver connected")

	err = conn.Listen(func(msg map[string]any) error {
		if err := h.handleLocation(ctx, d.ID, msg); err != nil {
			// report the failure to the driver, keep the stream alive
			return errorResponse(conn, err.Error())
		}
		return nil
	})
	if err != nil {
		h.log.Debug(ctx, "driver connection closed", "err", err.Error())
	}
}

func (h *DriverWS) handleLocation(ctx context.Context, driverID uuid.UUID, msg map[string]any) error {
	rideID, err := uuid.Parse(str(msg["ride_id"]))
	if err != nil {
		return err
	}

	lat, _ := msg["lat"].(float64)
	lng, _ := msg["lng"].(float64)

	var recordedAt time.Time
	if raw := str(msg["recorded_at"]); raw != "" {
		if recordedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return err
		}
	}

	return h.recorder.Record(ctx, rideID, driverID, lat, lng, recordedAt)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
