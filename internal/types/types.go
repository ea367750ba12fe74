// README: Common value objects shared across modules.
package types

import "fmt"

type ID string

type Point struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// String renders the literal coordinate form used when reverse geocoding is
// unavailable.
func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng)
}

const DefaultCurrency = "LKR"
