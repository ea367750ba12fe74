// README: Google Maps routing, reverse geocoding, and place search.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"fleetops/internal/types"
)

// RouteService handles routing and geocoding against the Google Maps API.
// All lookups are best-effort: failures degrade to zero distances or literal
// coordinate strings so callers can keep rendering.
type RouteService struct {
	client *maps.Client
	region string
	cache  *DistanceCache
}

// NewRouteService creates a RouteService with the given API key. cache may be
// nil to disable route-distance caching.
func NewRouteService(apiKey, region string, cache *DistanceCache) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client, region: region, cache: cache}, nil
}

// DistanceKm returns the driving distance between two points in kilometres.
// Satisfies the cost estimator's Router.
func (s *RouteService) DistanceKm(ctx context.Context, from, to types.Point) (float64, error) {
	if s.cache != nil {
		if km, ok := s.cache.Get(ctx, from, to); ok {
			return km, nil
		}
	}

	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Region:      s.region,
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	km := float64(meters) / 1000.0

	if s.cache != nil {
		s.cache.Put(ctx, from, to, km)
	}
	return km, nil
}

// ReverseGeocode resolves a point to an address string, falling back to the
// literal coordinates on any failure.
func (s *RouteService) ReverseGeocode(ctx context.Context, p types.Point) string {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil || len(results) == 0 {
		return p.String()
	}
	return results[0].FormattedAddress
}

// PlaceResult is a ranked forward-search hit.
type PlaceResult struct {
	Name string
	Lat  float64
	Lng  float64
}

// Search runs a forward text search and returns ranked candidates.
func (s *RouteService) Search(ctx context.Context, query string) ([]PlaceResult, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:  query,
		Region: s.region,
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []PlaceResult
	for _, r := range resp.Results {
		results = append(results, PlaceResult{
			Name: r.Name,
			Lat:  r.Geometry.Location.Lat,
			Lng:  r.Geometry.Location.Lng,
		})
		if len(results) >= 5 {
			break
		}
	}
	return results, nil
}
