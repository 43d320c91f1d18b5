package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hoblink/hoblink-backend/internal/adapter/http/middleware"
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
)

func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	mux.HandleFunc("/health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)

	switch mode {
	case types.SessionService:
		setupSessionRoutes(mux, routes, m)
	case types.RideService:
		setupRideRoutes(mux, routes, m)
	case types.DriverService:
		setupDriverRoutes(mux, routes, m)
	case types.AdminService:
		setupAdminRoutes(mux, routes, m)
	}
}

func setupSessionRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.HandleFunc("POST /auth/signup", routes.auth.SignUp)
	mux.HandleFunc("POST /auth/signin", routes.auth.SignIn)
	mux.HandleFunc("POST /auth/refresh", routes.auth.Refresh)
	mux.Handle("POST /auth/signout", m.RequireRoles(routes.auth.SignOut))
	mux.Handle("GET /auth/me", m.RequireRoles(routes.auth.Me))
}

func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /rides", m.RequireRoles(routes.ride.Create, types.RoleRider, types.RoleAdmin))
	mux.Handle("GET /rides", m.RequireRoles(routes.ride.History))
	mux.Handle("GET /rides/{ride_id}", m.RequireRoles(routes.ride.Get))
	mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(routes.ride.Cancel, types.RoleRider, types.RoleAdmin))
	mux.Handle("POST /rides/{ride_id}/rate", m.RequireRoles(routes.ride.Rate, types.RoleRider))
	mux.Handle("GET /rides/{ride_id}/route", m.RequireRoles(routes.ride.RouteTrace))
	mux.Handle("GET /ws/rides/{ride_id}", m.RequireRoles(routes.riderWS.Handle, types.RoleRider))
}

func setupDriverRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /drivers", m.RequireRoles(routes.driver.Register, types.RoleDriver))
	mux.Handle("GET /drivers/me", m.RequireRoles(routes.driver.Me, types.RoleDriver))
	mux.Handle("GET /drivers/available", m.RequireRoles(routes.driver.Available))
	mux.Handle("POST /drivers/online", m.RequireRoles(routes.driver.GoOnline, types.RoleDriver))
	mux.Handle("POST /drivers/offline", m.RequireRoles(routes.driver.GoOffline, types.RoleDriver))
	mux.Handle("POST /drivers/rides/{ride_id}/accept", m.RequireRoles(routes.driver.Accept, types.RoleDriver))
	mux.Handle("POST /drivers/rides/{ride_id}/start", m.RequireRoles(routes.driver.Start, types.RoleDriver))
	mux.Handle("POST /drivers/rides/{ride_id}/complete", m.RequireRoles(routes.driver.Complete, types.RoleDriver))
	mux.Handle("POST /drivers/rides/{ride_id}/location", m.RequireRoles(routes.driver.UpdateLocation, types.RoleDriver))
	mux.Handle("GET /ws/drivers", m.RequireRoles(routes.driverWS.Handle, types.RoleDriver))
}

func setupAdminRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /admin/overview", m.RequireRoles(routes.admin.Overview, types.RoleAdmin))
	mux.Handle("GET /admin/rides", m.RequireRoles(routes.admin.ListRides, types.RoleAdmin))
	mux.Handle("GET /admin/drivers", m.RequireRoles(routes.admin.ListDrivers, types.RoleAdmin))
	mux.Handle("GET /admin/users", m.RequireRoles(routes.admin.ListUsers, types.RoleAdmin))
	mux.Handle("POST /admin/drivers/{driver_id}/verify", m.RequireRoles(routes.admin.VerifyDriver, types.RoleAdmin))
	mux.Handle("POST /admin/drivers/{driver_id}/unverify", m.RequireRoles(routes.admin.UnverifyDriver, types.RoleAdmin))
}

// setupSwaggerRoutes mounts the per-service Swagger UI.
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	var instanceName string

	switch mode {
	case types.SessionService:
		instanceName = "session"
	case types.RideService:
		instanceName = "ride"
	case types.DriverService:
		instanceName = "driver"
	case types.AdminService:
		instanceName = "admin"
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup_swagger_routes"), "unknown service mode for swagger setup", "mode", string(mode))
		return
	}

	mux.HandleFunc("/swagger/", httpSwagger.Handler(httpSwagger.InstanceName(instanceName)))
}

func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
