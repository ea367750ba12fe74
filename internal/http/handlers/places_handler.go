// README: Location picker endpoints: forward place search and reverse geocode.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetops/internal/maps"
	"fleetops/internal/types"
)

// Geo is the maps surface the location picker needs. A nil Geo turns the
// endpoints into 503s, which is how the service runs without a Maps API key.
type Geo interface {
	ReverseGeocode(ctx context.Context, p types.Point) string
	Search(ctx context.Context, query string) ([]maps.PlaceResult, error)
}

type PlacesHandler struct {
	geo Geo
}

func NewPlacesHandler(geo Geo) *PlacesHandler {
	return &PlacesHandler{geo: geo}
}

func (h *PlacesHandler) Search(c *gin.Context) {
	if h.geo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "place search not configured"})
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	results, err := h.geo.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "place search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *PlacesHandler) Reverse(c *gin.Context) {
	if h.geo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reverse geocoding not configured"})
		return
	}
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	addr := h.geo.ReverseGeocode(c.Request.Context(), types.Point{Lat: lat, Lng: lng})
	c.JSON(http.StatusOK, gin.H{"address": addr})
}
