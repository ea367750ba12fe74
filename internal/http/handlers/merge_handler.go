// README: Merge negotiation endpoints: scan, propose, consent, finalize, cancel.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops/internal/http/middleware"
	"fleetops/internal/modules/trip"
	"fleetops/internal/types"
)

type MergeHandler struct {
	trips   *trip.Service
	scanner *trip.Scanner
}

func NewMergeHandler(trips *trip.Service, scanner *trip.Scanner) *MergeHandler {
	return &MergeHandler{trips: trips, scanner: scanner}
}

func (h *MergeHandler) Scan(c *gin.Context) {
	n, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": n})
}

type proposeRequest struct {
	VehicleID string `json:"vehicleId" binding:"required"`
	DriverID  string `json:"driverId" binding:"required"`
	Message   string `json:"message"`
}

func (h *MergeHandler) Propose(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.ProposeMerge(c.Request.Context(), trip.ProposeMergeCommand{
		CandidateTripID: types.ID(c.Param("id")),
		VehicleID:       types.ID(req.VehicleID),
		DriverID:        types.ID(req.DriverID),
		Message:         req.Message,
		AdminEmail:      middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type consentRequest struct {
	Party  string `json:"party" binding:"required"`
	Accept *bool  `json:"accept" binding:"required"`
}

func (h *MergeHandler) Consent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.trips.RecordConsent(c.Request.Context(), trip.ConsentCommand{
		TripID: types.ID(c.Param("id")),
		Party:  trip.Party(req.Party),
		Accept: *req.Accept,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MergeHandler) Finalize(c *gin.Context) {
	err := h.trips.FinalizeMerge(c.Request.Context(), trip.FinalizeMergeCommand{
		MasterTripID: types.ID(c.Param("id")),
		AdminEmail:   middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MergeHandler) Cancel(c *gin.Context) {
	err := h.trips.CancelMerge(c.Request.Context(), trip.CancelMergeCommand{
		TripID:     types.ID(c.Param("id")),
		AdminEmail: middleware.CallerEmail(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
