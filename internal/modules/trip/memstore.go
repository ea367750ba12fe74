// README: In-memory Store used by tests and local development.
package trip

import (
	"context"
	"sync"
	"time"

	"fleetops/internal/modules/fleet"
	"fleetops/internal/types"
)

// MemStore implements Store against process memory with the same
// transactional contract as the Firestore store: fn sees a consistent read
// view and its buffered writes apply only when fn returns nil.
type MemStore struct {
	mu       sync.Mutex
	trips    map[types.ID]*Trip
	vehicles map[types.ID]*fleet.Vehicle
	drivers  map[types.ID]*fleet.Driver
	serial   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		trips:    make(map[types.ID]*Trip),
		vehicles: make(map[types.ID]*fleet.Vehicle),
		drivers:  make(map[types.ID]*fleet.Driver),
	}
}

func (m *MemStore) SeedVehicle(v *fleet.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.vehicles[v.ID] = &cp
}

func (m *MemStore) SeedDriver(d *fleet.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drivers[d.ID] = &cp
}

func (m *MemStore) VehicleState(id types.ID) *fleet.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vehicles[id]; ok {
		cp := *v
		return &cp
	}
	return nil
}

func (m *MemStore) DriverState(id types.ID) *fleet.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drivers[id]; ok {
		cp := *d
		return &cp
	}
	return nil
}

func (m *MemStore) Trip(ctx context.Context, id types.ID) (*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) Create(ctx context.Context, t *Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trips[t.ID] = &cp
	return nil
}

func (m *MemStore) ByStatus(ctx context.Context, statuses ...Status) ([]*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Trip
	for _, t := range m.trips {
		for _, st := range statuses {
			if t.Status == st {
				cp := *t
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *MemStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	tx.flush()
	return nil
}

func (m *MemStore) NextSerial(ctx context.Context, prefix SerialPrefix) (string, error) {
	m.mu.Lock()
	m.serial++
	seq := m.serial
	m.mu.Unlock()
	return FormatSerial(prefix, time.Now(), seq), nil
}

type memTx struct {
	store       *MemStore
	putTrips    []*Trip
	delTrips    []types.ID
	putVehicles []*fleet.Vehicle
	putDrivers  []*fleet.Driver
}

func (tx *memTx) Trip(id types.ID) (*Trip, error) {
	t, ok := tx.store.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (tx *memTx) Vehicle(id types.ID) (*fleet.Vehicle, error) {
	v, ok := tx.store.vehicles[id]
	if !ok {
		return nil, fleet.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (tx *memTx) Driver(id types.ID) (*fleet.Driver, error) {
	d, ok := tx.store.drivers[id]
	if !ok {
		return nil, fleet.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (tx *memTx) PutTrip(t *Trip) {
	cp := *t
	tx.putTrips = append(tx.putTrips, &cp)
}

func (tx *memTx) DeleteTrip(id types.ID) {
	tx.delTrips = append(tx.delTrips, id)
}

func (tx *memTx) PutVehicle(v *fleet.Vehicle) {
	cp := *v
	tx.putVehicles = append(tx.putVehicles, &cp)
}

func (tx *memTx) PutDriver(d *fleet.Driver) {
	cp := *d
	tx.putDrivers = append(tx.putDrivers, &cp)
}

func (tx *memTx) flush() {
	for _, t := range tx.putTrips {
		tx.store.trips[t.ID] = t
	}
	for _, id := range tx.delTrips {
		delete(tx.store.trips, id)
	}
	for _, v := range tx.putVehicles {
		tx.store.vehicles[v.ID] = v
	}
	for _, d := range tx.putDrivers {
		tx.store.drivers[d.ID] = d
	}
}
