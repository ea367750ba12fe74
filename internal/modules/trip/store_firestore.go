// README: Firestore-backed trip store with buffered-write transactions and a serial counter.
package trip

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fleetops/internal/modules/fleet"
	"fleetops/internal/store"
	"fleetops/internal/types"
)

const (
	CollectionTrips    = "trip_requests"
	CollectionSettings = "settings"
	counterDoc         = "counters"
)

type FirestoreStore struct {
	client *firestore.Client
	log    zerolog.Logger
	trips  *store.Snapshot[*Trip]
}

func NewFirestoreStore(client *firestore.Client, log zerolog.Logger) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		log:    log,
		trips:  store.NewSnapshot[*Trip](),
	}
}

// Cached returns the subscribed trip snapshot used for availability views.
func (s *FirestoreStore) Cached() []*Trip { return s.trips.Items() }

func (s *FirestoreStore) OnUpdate(fn func([]*Trip)) { s.trips.OnUpdate(fn) }

// Watch runs the trip_requests subscription until ctx is cancelled.
func (s *FirestoreStore) Watch(ctx context.Context) {
	go store.Watch(ctx, s.client.Collection(CollectionTrips).Query, s.trips, decodeTrip, s.log)
}

func (s *FirestoreStore) Trip(ctx context.Context, id types.ID) (*Trip, error) {
	doc, err := s.client.Collection(CollectionTrips).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeTrip(doc)
}

func (s *FirestoreStore) Create(ctx context.Context, t *Trip) error {
	_, err := s.client.Collection(CollectionTrips).Doc(string(t.ID)).Create(ctx, t)
	return err
}

func (s *FirestoreStore) ByStatus(ctx context.Context, statuses ...Status) ([]*Trip, error) {
	vals := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		vals = append(vals, string(st))
	}
	it := s.client.Collection(CollectionTrips).Where("status", "in", vals).Documents(ctx)
	defer it.Stop()

	var out []*Trip
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := decodeTrip(doc)
		if err != nil {
			s.log.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("skipping undecodable trip")
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		tx := &fsTx{store: s, ft: ft}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.flush()
	})
}

func (s *FirestoreStore) NextSerial(ctx context.Context, prefix SerialPrefix) (string, error) {
	ref := s.client.Collection(CollectionSettings).Doc(counterDoc)
	var seq int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		doc, err := ft.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if doc != nil && doc.Exists() {
			if v, err := doc.DataAt("serialSeq"); err == nil {
				if n, ok := v.(int64); ok {
					seq = n
				}
			}
		}
		seq++
		return ft.Set(ref, map[string]interface{}{"serialSeq": seq}, firestore.MergeAll)
	})
	if err != nil {
		return "", err
	}
	return FormatSerial(prefix, time.Now(), seq), nil
}

// fsTx buffers writes so every read in fn precedes the first write, which is
// what Firestore transactions require.
type fsTx struct {
	store  *FirestoreStore
	ft     *firestore.Transaction
	writes []func(*firestore.Transaction) error
}

func (tx *fsTx) Trip(id types.ID) (*Trip, error) {
	doc, err := tx.ft.Get(tx.store.client.Collection(CollectionTrips).Doc(string(id)))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeTrip(doc)
}

func (tx *fsTx) Vehicle(id types.ID) (*fleet.Vehicle, error) {
	doc, err := tx.ft.Get(tx.store.client.Collection(fleet.CollectionVehicles).Doc(string(id)))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fleet.ErrNotFound
		}
		return nil, err
	}
	var v fleet.Vehicle
	if err := doc.DataTo(&v); err != nil {
		return nil, err
	}
	v.ID = types.ID(doc.Ref.ID)
	return &v, nil
}

func (tx *fsTx) Driver(id types.ID) (*fleet.Driver, error) {
	doc, err := tx.ft.Get(tx.store.client.Collection(fleet.CollectionUsers).Doc(string(id)))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fleet.ErrNotFound
		}
		return nil, err
	}
	var d fleet.Driver
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	d.ID = types.ID(doc.Ref.ID)
	return &d, nil
}

func (tx *fsTx) PutTrip(t *Trip) {
	ref := tx.store.client.Collection(CollectionTrips).Doc(string(t.ID))
	cp := *t
	tx.writes = append(tx.writes, func(ft *firestore.Transaction) error {
		return ft.Set(ref, &cp)
	})
}

func (tx *fsTx) DeleteTrip(id types.ID) {
	ref := tx.store.client.Collection(CollectionTrips).Doc(string(id))
	tx.writes = append(tx.writes, func(ft *firestore.Transaction) error {
		return ft.Delete(ref)
	})
}

func (tx *fsTx) PutVehicle(v *fleet.Vehicle) {
	ref := tx.store.client.Collection(fleet.CollectionVehicles).Doc(string(v.ID))
	cp := *v
	tx.writes = append(tx.writes, func(ft *firestore.Transaction) error {
		return ft.Set(ref, &cp)
	})
}

func (tx *fsTx) PutDriver(d *fleet.Driver) {
	ref := tx.store.client.Collection(fleet.CollectionUsers).Doc(string(d.ID))
	cp := *d
	tx.writes = append(tx.writes, func(ft *firestore.Transaction) error {
		return ft.Set(ref, &cp)
	})
}

func (tx *fsTx) flush() error {
	for _, w := range tx.writes {
		if err := w(tx.ft); err != nil {
			return err
		}
	}
	return nil
}

func decodeTrip(doc *firestore.DocumentSnapshot) (*Trip, error) {
	var t Trip
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	t.ID = types.ID(doc.Ref.ID)
	if t.Status == "" {
		t.Status = StatusPending
	}
	return &t, nil
}
