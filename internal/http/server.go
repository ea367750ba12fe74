// README: API gateway; registers routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleetops/internal/http/handlers"
	"fleetops/internal/http/middleware"
	"fleetops/internal/infra"
	"fleetops/internal/modules/payroll"
	"fleetops/internal/modules/trip"
)

type ServerDeps struct {
	Trips     *trip.Service
	Scanner   *trip.Scanner
	Payroll   *payroll.Service
	Snapshots handlers.SnapshotSource
	Units     handlers.UnitSource
	Geo       handlers.Geo
	Verifier  infra.TokenVerifier
	Log       zerolog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Log))
	r.Use(middleware.Logging(s.deps.Log))
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	tripHandler := handlers.NewTripHandler(s.deps.Trips)
	mergeHandler := handlers.NewMergeHandler(s.deps.Trips, s.deps.Scanner)
	fleetHandler := handlers.NewFleetHandler(s.deps.Snapshots, s.deps.Units)
	payrollHandler := handlers.NewPayrollHandler(s.deps.Payroll)
	placesHandler := handlers.NewPlacesHandler(s.deps.Geo)

	api := r.Group("/api")
	api.Use(middleware.Auth(s.deps.Verifier))

	api.POST("/trips", tripHandler.Submit)
	api.GET("/trips", tripHandler.List)
	api.GET("/trips/:id", tripHandler.Get)

	// Driver-side inputs.
	api.POST("/trips/:id/start", tripHandler.Start)
	api.POST("/trips/:id/complete", tripHandler.Complete)
	api.POST("/trips/:id/breakdown", tripHandler.ReportBreakdown)
	api.POST("/trips/:id/merge/consent", mergeHandler.Consent)

	api.GET("/places/search", placesHandler.Search)
	api.GET("/places/reverse", placesHandler.Reverse)

	admin := api.Group("/")
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("/trips/:id/approve", tripHandler.Approve)
	admin.POST("/trips/:id/reject", tripHandler.Reject)
	admin.POST("/trips/:id/reassign", tripHandler.Reassign)
	admin.POST("/trips/:id/cancel-breakdown", tripHandler.CancelBreakdown)
	admin.POST("/trips/:id/merge/propose", mergeHandler.Propose)
	admin.POST("/trips/:id/merge/finalize", mergeHandler.Finalize)
	admin.POST("/trips/:id/merge/cancel", mergeHandler.Cancel)
	admin.POST("/merge/scan", mergeHandler.Scan)

	admin.GET("/availability/vehicles", fleetHandler.AvailableVehicles)
	admin.GET("/availability/drivers", fleetHandler.QualifiedDrivers)
	admin.GET("/vehicles/:id", fleetHandler.GetVehicle)
	admin.GET("/drivers/:id", fleetHandler.GetDriver)

	admin.GET("/drivers/:id/payroll", payrollHandler.ForDriver)
	admin.POST("/payroll/:id/paid", payrollHandler.MarkPaid)

	return r
}
