// README: Store contract for trips; transactions cover trips, vehicles, and drivers.
package trip

import (
	"context"
	"fmt"
	"time"

	"fleetops/internal/modules/fleet"
	"fleetops/internal/types"
)

// SerialPrefix tags a serial number with the approval path that issued it.
type SerialPrefix string

const (
	SerialNormal SerialPrefix = "N"
	SerialBreak  SerialPrefix = "B"
	SerialMerge  SerialPrefix = "M"
)

// FormatSerial renders {PREFIX}-{YYYYMMDD}-{HHMMSS}-{seq}. The sequence comes
// from a store-side monotonic counter, so serials are unique even when two
// admins approve within the same second.
func FormatSerial(prefix SerialPrefix, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%03d", prefix, at.Format("20060102"), at.Format("150405"), seq)
}

// Tx exposes read-then-write access to the documents a lifecycle action may
// touch. All reads must happen before the first Put/Delete; writes are
// buffered and either all commit or none do.
type Tx interface {
	Trip(id types.ID) (*Trip, error)
	Vehicle(id types.ID) (*fleet.Vehicle, error)
	Driver(id types.ID) (*fleet.Driver, error)

	PutTrip(t *Trip)
	DeleteTrip(id types.ID)
	PutVehicle(v *fleet.Vehicle)
	PutDriver(d *fleet.Driver)
}

// Store is the trip-side view of the entity store.
type Store interface {
	Trip(ctx context.Context, id types.ID) (*Trip, error)
	Create(ctx context.Context, t *Trip) error
	ByStatus(ctx context.Context, statuses ...Status) ([]*Trip, error)

	// RunTransaction executes fn atomically. Any error from fn aborts the
	// transaction with no effect.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// NextSerial increments the monotonic serial counter and returns the
	// formatted serial number.
	NextSerial(ctx context.Context, prefix SerialPrefix) (string, error)
}
