// README: Payroll store backed by the driver_payroll collection.
package payroll

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fleetops/internal/types"
)

const CollectionPayroll = "driver_payroll"

var ErrNotFound = errors.New("earning not found")

type Store interface {
	Append(ctx context.Context, e *Earning) error
	ByDriver(ctx context.Context, driverID types.ID) ([]*Earning, error)
	MarkPaid(ctx context.Context, id types.ID, at time.Time) error
}

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Append(ctx context.Context, e *Earning) error {
	_, err := s.client.Collection(CollectionPayroll).Doc(string(e.ID)).Create(ctx, e)
	return err
}

func (s *FirestoreStore) ByDriver(ctx context.Context, driverID types.ID) ([]*Earning, error) {
	it := s.client.Collection(CollectionPayroll).Where("driverId", "==", string(driverID)).Documents(ctx)
	defer it.Stop()

	var out []*Earning
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var e Earning
		if err := doc.DataTo(&e); err != nil {
			continue
		}
		e.ID = types.ID(doc.Ref.ID)
		out = append(out, &e)
	}
	return out, nil
}

func (s *FirestoreStore) MarkPaid(ctx context.Context, id types.ID, at time.Time) error {
	_, err := s.client.Collection(CollectionPayroll).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "paid", Value: true},
		{Path: "paidAt", Value: at},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}
