// README: Vehicle and driver aggregates plus the license qualification rule.
package fleet

import "fleetops/internal/types"

type UnitStatus string

const (
	StatusAvailable     UnitStatus = "available"
	StatusInUse         UnitStatus = "in-use"
	StatusInMaintenance UnitStatus = "in-maintenance"
)

type Vehicle struct {
	ID           types.ID   `firestore:"-"`
	Name         string     `firestore:"name"`
	PlateNo      string     `firestore:"plateNo"`
	Seats        int        `firestore:"seats"`
	RatePerKm    float64    `firestore:"ratePerKm"`
	LicenseClass string     `firestore:"licenseClass"`
	Status       UnitStatus `firestore:"status"`
	// CurrentTripID is the owning reference: set when the vehicle is
	// assigned, cleared only by a release that still sees this trip.
	CurrentTripID types.ID `firestore:"currentTripId"`
}

type Driver struct {
	ID            types.ID   `firestore:"-"`
	Name          string     `firestore:"name"`
	Email         string     `firestore:"email"`
	LicenseClass  string     `firestore:"licenseClass"`
	Status        UnitStatus `firestore:"status"`
	CurrentTripID types.ID   `firestore:"currentTripId"`
}

// Qualifies reports whether a driver holding driverClass may operate a
// vehicle requiring requiredClass. Equal classes always qualify, class D
// qualifies for everything, and class B additionally covers class A.
func Qualifies(driverClass, requiredClass string) bool {
	if driverClass == requiredClass {
		return true
	}
	if driverClass == "D" {
		return true
	}
	if driverClass == "B" && requiredClass == "A" {
		return true
	}
	return false
}
