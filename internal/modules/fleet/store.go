// README: Fleet store backed by Firestore (vehicles + driver users) with snapshot watchers.
package fleet

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fleetops/internal/store"
	"fleetops/internal/types"
)

const (
	CollectionVehicles = "vehicles"
	CollectionUsers    = "users"
)

var ErrNotFound = errors.New("fleet unit not found")

type Store struct {
	client *firestore.Client
	log    zerolog.Logger

	vehicles *store.Snapshot[*Vehicle]
	drivers  *store.Snapshot[*Driver]
}

func NewStore(client *firestore.Client, log zerolog.Logger) *Store {
	return &Store{
		client:   client,
		log:      log,
		vehicles: store.NewSnapshot[*Vehicle](),
		drivers:  store.NewSnapshot[*Driver](),
	}
}

// Vehicles returns the cached vehicle snapshot.
func (s *Store) Vehicles() []*Vehicle { return s.vehicles.Items() }

// Drivers returns the cached driver snapshot.
func (s *Store) Drivers() []*Driver { return s.drivers.Items() }

func (s *Store) OnVehicles(fn func([]*Vehicle)) { s.vehicles.OnUpdate(fn) }
func (s *Store) OnDrivers(fn func([]*Driver))   { s.drivers.OnUpdate(fn) }

// WatchAll runs the vehicle and driver subscriptions until ctx is cancelled.
func (s *Store) WatchAll(ctx context.Context) {
	go store.Watch(ctx, s.client.Collection(CollectionVehicles).Query, s.vehicles, decodeVehicle, s.log)
	go store.Watch(ctx, s.client.Collection(CollectionUsers).Where("role", "==", "driver"), s.drivers, decodeDriver, s.log)
}

func (s *Store) Vehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	doc, err := s.client.Collection(CollectionVehicles).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeVehicle(doc)
}

func (s *Store) Driver(ctx context.Context, id types.ID) (*Driver, error) {
	doc, err := s.client.Collection(CollectionUsers).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeDriver(doc)
}

// ListVehicles reads the collection directly, bypassing the cache. Used at
// startup before the first snapshot arrives.
func (s *Store) ListVehicles(ctx context.Context) ([]*Vehicle, error) {
	it := s.client.Collection(CollectionVehicles).Documents(ctx)
	defer it.Stop()

	var out []*Vehicle
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := decodeVehicle(doc)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeVehicle(doc *firestore.DocumentSnapshot) (*Vehicle, error) {
	var v Vehicle
	if err := doc.DataTo(&v); err != nil {
		return nil, err
	}
	v.ID = types.ID(doc.Ref.ID)
	if v.Status == "" {
		v.Status = StatusAvailable
	}
	return &v, nil
}

func decodeDriver(doc *firestore.DocumentSnapshot) (*Driver, error) {
	var d Driver
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	d.ID = types.ID(doc.Ref.ID)
	if d.Status == "" {
		d.Status = StatusAvailable
	}
	return &d, nil
}
