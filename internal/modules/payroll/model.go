// README: Driver earning record appended per completed trip.
package payroll

import (
	"time"

	"fleetops/internal/types"
)

type Earning struct {
	ID         types.ID   `firestore:"-"`
	DriverID   types.ID   `firestore:"driverId"`
	TripID     types.ID   `firestore:"tripId"`
	TripSerial string     `firestore:"tripSerial"`
	TripDate   string     `firestore:"tripDate"`
	DistanceKm float64    `firestore:"distanceKm"`
	Amount     int64      `firestore:"amount"`
	Currency   string     `firestore:"currency"`
	Paid       bool       `firestore:"paid"`
	PaidAt     *time.Time `firestore:"paidAt"`
	CreatedAt  time.Time  `firestore:"createdAt"`
}
