// README: Trip lifecycle endpoints: submit, approve, reject, breakdown flow.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/http/middleware"
	"fleetops/internal/modules/trip"
	"fleetops/internal/types"
)

type TripHandler struct {
	trips *trip.Service
}

func NewTripHandler(trips *trip.Service) *TripHandler {
	return &TripHandler{trips: trips}
}

type submitRequest struct {
	Date         string        `json:"date" binding:"required"`
	Time         string        `json:"time"`
	Passengers   int           `json:"passengers" binding:"required"`
	Pickup       string        `json:"pickup" binding:"required"`
	PickupCoords *types.Point  `json:"pickupCoords"`
	Stops        []string      `json:"stops"`
	StopCoords   []types.Point `json:"stopCoords"`
	Destination  string        `json:"destination" binding:"required"`
	DestCoords   *types.Point  `json:"destinationCoords"`
}

func (h *TripHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.trips.Submit(c.Request.Context(), trip.SubmitCommand{
		RequestedBy:  middleware.CallerEmail(c),
		Date:         req.Date,
		Time:         req.Time,
		Passengers:   req.Passengers,
		Pickup:       req.Pickup,
		PickupCoords: req.PickupCoords,
		Stops:        req.Stops,
		StopCoords:   req.StopCoords,
		Destination:  req.Destination,
		DestCoords:   req.DestCoords,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type approveRequest struct {
	VehicleID string `json:"vehicleId" binding:"required"`
	DriverID  string `json:"driverId" binding:"required"`
}

func (h *TripHandler) Approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.Approve(c.Request.Context(), trip.ApproveCommand{
		TripID:     types.ID(c.Param("id")),
		VehicleID:  types.ID(req.VehicleID),
		DriverID:   types.ID(req.DriverID),
		AdminEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *TripHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.Reject(c.Request.Context(), trip.RejectCommand{
		TripID:     types.ID(c.Param("id")),
		Reason:     req.Reason,
		AdminEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type startRequest struct {
	OdometerStart float64 `json:"odometerStart"`
}

func (h *TripHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.Start(c.Request.Context(), trip.StartCommand{
		TripID:        types.ID(c.Param("id")),
		OdometerStart: req.OdometerStart,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) Complete(c *gin.Context) {
	err := h.trips.Complete(c.Request.Context(), trip.CompleteCommand{
		TripID: types.ID(c.Param("id")),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type breakdownRequest struct {
	Location     *types.Point `json:"location"`
	LocationName string       `json:"locationName"`
	Odometer     float64      `json:"odometer"`
}

func (h *TripHandler) ReportBreakdown(c *gin.Context) {
	var req breakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.ReportBreakdown(c.Request.Context(), trip.BreakdownCommand{
		TripID:       types.ID(c.Param("id")),
		Location:     req.Location,
		LocationName: req.LocationName,
		Odometer:     req.Odometer,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reassignRequest struct {
	VehicleID     string       `json:"vehicleId" binding:"required"`
	DriverID      string       `json:"driverId" binding:"required"`
	StartLocation *types.Point `json:"startLocation" binding:"required"`
	StartName     string       `json:"startName"`
}

func (h *TripHandler) Reassign(c *gin.Context) {
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.Reassign(c.Request.Context(), trip.ReassignCommand{
		TripID:        types.ID(c.Param("id")),
		VehicleID:     types.ID(req.VehicleID),
		DriverID:      types.ID(req.DriverID),
		StartLocation: req.StartLocation,
		StartName:     req.StartName,
		AdminEmail:    middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) CancelBreakdown(c *gin.Context) {
	err := h.trips.CancelBreakdown(c.Request.Context(), trip.CancelBreakdownCommand{
		TripID:     types.ID(c.Param("id")),
		AdminEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) List(c *gin.Context) {
	statusParam := c.Query("status")
	var statuses []trip.Status
	if statusParam != "" {
		statuses = []trip.Status{trip.Status(statusParam)}
	} else {
		for st := range trip.Transitions {
			statuses = append(statuses, st)
		}
	}
	trips, err := h.trips.ByStatus(c.Request.Context(), statuses...)
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}
