// README: Fleet endpoints: availability views from cached snapshots, unit details.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/modules/availability"
	"fleetops/internal/modules/fleet"
	"fleetops/internal/modules/trip"
	"fleetops/internal/types"
)

// SnapshotSource exposes the subscribed caches the availability filters read.
type SnapshotSource interface {
	Trips() []*trip.Trip
	Vehicles() []*fleet.Vehicle
	Drivers() []*fleet.Driver
}

// UnitSource reads single fleet documents, bypassing the caches.
type UnitSource interface {
	Vehicle(ctx context.Context, id types.ID) (*fleet.Vehicle, error)
	Driver(ctx context.Context, id types.ID) (*fleet.Driver, error)
}

type FleetHandler struct {
	snapshots SnapshotSource
	units     UnitSource
}

func NewFleetHandler(snapshots SnapshotSource, units UnitSource) *FleetHandler {
	return &FleetHandler{snapshots: snapshots, units: units}
}

func (h *FleetHandler) AvailableVehicles(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	out := availability.Vehicles(h.snapshots.Vehicles(), h.snapshots.Trips(), date)
	c.JSON(http.StatusOK, gin.H{"vehicles": out})
}

func (h *FleetHandler) QualifiedDrivers(c *gin.Context) {
	date := c.Query("date")
	class := c.Query("licenseClass")
	if date == "" || class == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and licenseClass are required"})
		return
	}
	out := availability.Drivers(h.snapshots.Drivers(), h.snapshots.Trips(), class, date)
	c.JSON(http.StatusOK, gin.H{"drivers": out})
}

func (h *FleetHandler) GetVehicle(c *gin.Context) {
	v, err := h.units.Vehicle(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *FleetHandler) GetDriver(c *gin.Context) {
	d, err := h.units.Driver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
