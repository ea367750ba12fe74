// README: Pure availability filters over cached vehicle, driver, and trip snapshots.
package availability

import (
	"fleetops/internal/modules/fleet"
	"fleetops/internal/modules/trip"
)

// Vehicles returns the vehicles free on the given date: not in maintenance
// and not referenced by any trip in the conflict-status set on that date.
// The inputs are snapshot slices; callers must re-derive on every render
// rather than memoizing a previous result.
func Vehicles(vehicles []*fleet.Vehicle, trips []*trip.Trip, date string) []*fleet.Vehicle {
	busyVehicles, _ := trip.Conflicting(trips, date)

	var out []*fleet.Vehicle
	for _, v := range vehicles {
		if v.Status == fleet.StatusInMaintenance {
			continue
		}
		if busyVehicles[v.ID] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Drivers returns the drivers free on the given date and qualified for the
// required license class.
func Drivers(drivers []*fleet.Driver, trips []*trip.Trip, requiredClass, date string) []*fleet.Driver {
	_, busyDrivers := trip.Conflicting(trips, date)

	var out []*fleet.Driver
	for _, d := range drivers {
		if !fleet.Qualifies(d.LicenseClass, requiredClass) {
			continue
		}
		if d.Status == fleet.StatusInMaintenance {
			continue
		}
		if busyDrivers[d.ID] {
			continue
		}
		out = append(out, d)
	}
	return out
}
