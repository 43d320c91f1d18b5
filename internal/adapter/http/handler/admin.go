package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

type AdminService interface {
	Overview(ctx context.Context) (*models.RideOverview, error)
	ListRides(ctx context.Context, limit, offset int) ([]models.Ride, error)
	ListDrivers(ctx context.Context, limit, offset int) ([]models.Driver, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.Profile, error)
	SetDriverVerified(ctx context.Context, driverID uuid.UUID, verified bool) error
}

type Admin struct {
	admin AdminService
	l     logger.Logger
}

func NewAdmin(service AdminService, l logger.Logger) *Admin {
	return &Admin{
		admin: service,
		l:     l,
	}
}

// Overview godoc
// @Summary      Fleet overview
// @Description  Ride counts per status with active and verified driver totals
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /admin/overview [get]
func (h *Admin) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_overview")

	overview, err := h.admin.Overview(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to build overview", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{"overview": overview}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListRides godoc
// @Summary      List rides
// @Tags         Admin
// @Produce      json
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Page offset"
// @Success      200  {object}  map[string]any
// @Router       /admin/rides [get]
func (h *Admin) ListRides(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_list_rides")
	limit, offset := pageParams(r)

	rides, err := h.admin.ListRides(ctx, limit, offset)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		serviceErrorResponse(w, err)
		return
	}

	h.writeList(ctx, w, envelope{"rides": rides})
}

// ListDrivers godoc
// @Summary      List drivers
// @Tags         Admin
// @Produce      json
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Page offset"
// @Success      200  {object}  map[string]any
// @Router       /admin/drivers [get]
func (h *Admin) ListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_list_drivers")
	limit, offset := pageParams(r)

	drivers, err := h.admin.ListDrivers(ctx, limit, offset)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list drivers", err)
		serviceErrorResponse(w, err)
		return
	}

	h.writeList(ctx, w, envelope{"drivers": drivers})
}

// ListUsers godoc
// @Summary      List users
// @Tags         Admin
// @Produce      json
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Page offset"
// @Success      200  {object}  map[string]any
// @Router       /admin/users [get]
func (h *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_list_users")
	limit, offset := pageParams(r)

	users, err := h.admin.ListUsers(ctx, limit, offset)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list users", err)
		serviceErrorResponse(w, err)
		return
	}

	h.writeList(ctx, w, envelope{"users": users})
}

// VerifyDriver godoc
// @Summary      Verify a driver
// @Tags         Admin
// @Param        driver_id  path  string  true  "Driver ID"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Router       /admin/drivers/{driver_id}/verify [post]
func (h *Admin) VerifyDriver(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, true, "verify_driver")
}

// UnverifyDriver godoc
// @Summary      Revoke driver verification
// @Tags         Admin
// @Param        driver_id  path  string  true  "Driver ID"
// @Success      204
// @Failure      404  {object}  map[string]any
// @Router       /admin/drivers/{driver_id}/unverify [post]
func (h *Admin) UnverifyDriver(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, false, "unverify_driver")
}

func (h *Admin) setVerified(w http.ResponseWriter, r *http.Request, verified bool, action string) {
	ctx := wrap.WithAction(r.Context(), action)

	driverID, err := pathUUID(r, "driver_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.admin.SetDriverVerified(ctx, driverID, verified); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to change driver verification", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Admin) writeList(ctx context.Context, w http.ResponseWriter, response envelope) {
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
