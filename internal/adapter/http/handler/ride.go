package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hoblink/hoblink-backend/internal/adapter/http/handler/dto"
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type RideService interface {
	Create(ctx context.Context, req models.RideRequest) (*models.Ride, error)
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Ride, error)
	Cancel(ctx context.Context, rideID, userID uuid.UUID) (*models.Ride, error)
	Rate(ctx context.Context, rideID, userID uuid.UUID, rating float64) error
}

type TrackingReader interface {
	Route(ctx context.Context, rideID uuid.UUID) ([]models.TrackingPoint, error)
}

type Ride struct {
	rides    RideService
	tracking TrackingReader
	l        logger.Logger
}

func NewRide(rides RideService, tracking TrackingReader, l logger.Logger) *Ride {
	return &Ride{
		rides:    rides,
		tracking: tracking,
		l:        l,
	}
}

// Create godoc
// @Summary      Request a ride
// @Description  Creates a pending ride with the fare computed up front
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        request  body  dto.CreateRideRequest  true  "Ride request"
// @Success      201  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")
	user := models.UserFromContext(ctx)

	req := &dto.CreateRideRequest{}
	if err := readJSON(w, r, req); err != nil {
		h.l.Error(ctx, "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateRide(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.rides.Create(ctx, req.ToModel(user.ID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"ride": ride}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Get godoc
// @Summary      Get a ride
// @Tags         Rides
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /rides/{ride_id} [get]
func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.rides.Get(ctx, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get ride", err)
		serviceErrorResponse(w, err)
		return
	}

	// riders see only their own rides
	if ride.UserID != user.ID && !user.HasRole(types.RoleAdmin) {
		errorResponse(w, http.StatusNotFound, "ride not found")
		return
	}

	response := envelope{"ride": ride}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// History godoc
// @Summary      Ride history
// @Description  Lists the caller's rides, newest first
// @Tags         Rides
// @Produce      json
// @Param        limit  query  int  false  "Max rides to return"
// @Success      200  {object}  map[string]any
// @Router       /rides [get]
func (h *Ride) History(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ride_history")
	user := models.UserFromContext(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rides, err := h.rides.History(ctx, user.ID, limit)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"rides": rides}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Cancel godoc
// @Summary      Cancel a ride
// @Description  Cancels a pending or accepted ride requested by the caller
// @Tags         Rides
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.rides.Cancel(ctx, rideID, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to cancel ride", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"ride": ride}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Rate godoc
// @Summary      Rate a completed ride
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id  path  string                true  "Ride ID"
// @Param        request  body  dto.RateRideRequest  true  "Rating"
// @Success      204
// @Failure      409  {object}  map[string]any
// @Router       /rides/{ride_id}/rate [post]
func (h *Ride) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rate_ride")
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	req := &dto.RateRideRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRateRide(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.rides.Rate(ctx, rideID, user.ID, req.Rating); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to rate ride", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RouteTrace godoc
// @Summary      Ride route trace
// @Description  Returns the ordered tracking points for a ride
// @Tags         Rides
// @Produce      json
// @Param        ride_id  path  string  true  "Ride ID"
// @Success      200  {object}  map[string]any
// @Router       /rides/{ride_id}/route [get]
func (h *Ride) RouteTrace(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ride_route")
	user := models.UserFromContext(ctx)

	rideID, err := pathUUID(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.rides.Get(ctx, rideID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}
	if ride.UserID != user.ID && !user.HasRole(types.RoleAdmin) {
		errorResponse(w, http.StatusNotFound, "ride not found")
		return
	}

	points, err := h.tracking.Route(ctx, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load route", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"points": points}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
