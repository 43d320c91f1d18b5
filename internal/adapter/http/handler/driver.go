package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hoblink/hoblink-backend/internal/adapter/http/handler/dto"
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/driver"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type DriverService interface {
	Register(ctx context.Context, req driver.RegisterRequest) (*models.Driver, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	Available(ctx context.Context, limit int) ([]models.Driver, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
}

type DriverRideService interface {
	Accept(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Complete(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
}

type LocationRecorder interface {
	Record(ctx context.Context, rideID, driverID uuid.UUID, lat, lng float64, recordedAt time.Time) error
}

type Driver struct {
	drivers  DriverService
	rides    DriverRideService
	recorder LocationRecorder
	l        logger.Logger
}

func NewDriver(drivers DriverService, rides DriverRideService, recorder LocationRecorder, l logger.Logger) *Driver {
	return &Driver{
		drivers:  drivers,
		rides:    rides,
		recorder: recorder,
		l:        l,
	}
}

// Register godoc
// @Summary      Register as a driver
// @Description  Creates an unverified driver record for the caller
// @Tags         Drivers
// @Accept       json
// @Produce      json
// @Param        request  body  dto.RegisterDriverRequest  true  "Driver registration"
// @Success      201  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /drivers [post]
func (h *Driver) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_driver")
	user := models.UserFromContext(ctx)

	req := &dto.RegisterDriverRequest{}
	if err := readJSON(w, r, req); err != nil {
		h.l.Error(ctx, "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRegisterDriver(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	d, err := h.drivers.Register(ctx, req.ToModel(user.ID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register driver", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"driver": d}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Me godoc
// @Summary      Own driver record
// @Tags         Drivers
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /drivers/me [get]
func (h *Driver) Me(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver")
	user := models.UserFromContext(ctx)

	d, err := h.drivers.GetByUser(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"driver": d}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Available godoc
// @Summary      Available drivers
// @Description  Lists verified, active drivers ordered by rating
// @Tags         Drivers
// @Produce      json
// @Param        limit  query  int  false  "Max drivers to return"
// @Success      200  {object}  map[string]any
// @Router       /drivers/available [get]
func (h *Driver) Available(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_available_drivers")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	drivers, err := h.drivers.Available(ctx, limit)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list drivers", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"drivers": drivers}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// GoOnline godoc
// @Summary      Go online
// @Tags         Drivers
// @Success      204
// @Router       /drivers/online [post]
func (h *Driver) GoOnline(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "driver_go_online")
}

// GoOffline godoc
// @Summary      Go offline
// @Tags         Drivers
// @Success      204
// @Router       /drivers/offline [post]
func (h *Driver) GoOffline(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "driver_go_offline")
}

func (h *Driver) setActive(w http.ResponseWriter, r *http.Request, active bool, action string) {
	ctx := wrap.WithAction(r.Context(), action)
	user := models.UserFromContext(ctx)

	if err := h.drivers.SetActive(ctx, user.ID, active); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to change driver availability", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Accept godoc
// @Summary      Accept a ride
// @Description  Claims a pending ride; the first driver wins, the rest get 409
// @Tags         Drivers
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /drivers/rides/{ride_id}/accept [post]
func (h *Driver) Accept(w http.ResponseWriter, r *http.Request) {
	h.rideAction(w, r, "accept_ride", h.rides.Accept)
}

// Start godoc
// @Summary      Start a ride
// @Tags         Drivers
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /drivers/rides/{ride_id}/start [post]
func (h *Driver) Start(w http.ResponseWriter, r *http.Request) {
	h.rideAction(w, r, "start_ride", h.rides.Start)
}

// Complete godoc
// @Summary      Complete a ride
// @Tags         Drivers
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /drivers/rides/{ride_id}/complete [post]
func (h *Driver) Complete(w http.ResponseWriter, r *http.Request) {
	h.rideAction(w, r, "complete_ride", h.rides.Complete)
}

func (h *Driver) rideAction(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)) {
	ctx := wrap.WithAction(r.Context(), action)
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	d, err := h.drivers.GetByUser(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	ride, err := fn(ctx, rideID, d.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "ride action failed", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"ride": ride}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// UpdateLocation godoc
// @Summary      Report a position
// @Description  Appends one tracking point for an active ride
// @Tags         Drivers
// @Accept       json
// @Param        ride_id  path  string                    true  "Ride ID"
// @Param        request  body  dto.LocationUpdateRequest  true  "Position"
// @Success      204
// @Failure      409  {object}  map[string]any
// @Router       /drivers/rides/{ride_id}/location [post]
func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_location")
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	req := &dto.LocationUpdateRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateLocationUpdate(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	d, err := h.drivers.GetByUser(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	recordedAt := time.Time{}
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	if err := h.recorder.Record(ctx, rideID, d.ID, req.Lat, req.Lng, recordedAt); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to record location", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
