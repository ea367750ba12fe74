// README: Payroll service tests over an in-memory store.
package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/types"
)

type memStore struct {
	earnings map[types.ID]*Earning
}

func newMemStore() *memStore {
	return &memStore{earnings: make(map[types.ID]*Earning)}
}

func (m *memStore) Append(ctx context.Context, e *Earning) error {
	cp := *e
	m.earnings[e.ID] = &cp
	return nil
}

func (m *memStore) ByDriver(ctx context.Context, driverID types.ID) ([]*Earning, error) {
	var out []*Earning
	for _, e := range m.earnings {
		if e.DriverID == driverID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) MarkPaid(ctx context.Context, id types.ID, at time.Time) error {
	e, ok := m.earnings[id]
	if !ok {
		return ErrNotFound
	}
	e.Paid = true
	e.PaidAt = &at
	return nil
}

func TestRecordEarning(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "LKR")
	ctx := context.Background()

	assert.ErrorIs(t, svc.RecordEarning(ctx, "", "t1", "N-1", "2025-06-01", 100, 5000), ErrBadRequest)

	require.NoError(t, svc.RecordEarning(ctx, "d1", "t1", "N-20250601-093015-001", "2025-06-01", 100, 5000))
	got, err := svc.ForDriver(ctx, "d1", "", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ID("t1"), got[0].TripID)
	assert.Equal(t, int64(5000), got[0].Amount)
	assert.Equal(t, "LKR", got[0].Currency)
	assert.False(t, got[0].Paid)
}

func TestForDriverDateRange(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "")
	ctx := context.Background()

	for _, date := range []string{"2025-05-15", "2025-06-01", "2025-06-20", "2025-07-02"} {
		require.NoError(t, svc.RecordEarning(ctx, "d1", types.ID("t-"+date), "", date, 50, 2500))
	}
	require.NoError(t, svc.RecordEarning(ctx, "d2", "t-other", "", "2025-06-10", 50, 2500))

	got, err := svc.ForDriver(ctx, "d1", "2025-06-01", "2025-06-30")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, types.ID("d1"), e.DriverID)
	}

	// open bounds
	got, err = svc.ForDriver(ctx, "d1", "", "")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = svc.ForDriver(ctx, "", "", "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestMarkPaid(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, "LKR")
	ctx := context.Background()

	require.NoError(t, svc.RecordEarning(ctx, "d1", "t1", "", "2025-06-01", 100, 5000))
	all, _ := svc.ForDriver(ctx, "d1", "", "")
	require.Len(t, all, 1)

	require.NoError(t, svc.MarkPaid(ctx, all[0].ID))
	all, _ = svc.ForDriver(ctx, "d1", "", "")
	assert.True(t, all[0].Paid)
	require.NotNil(t, all[0].PaidAt)

	assert.ErrorIs(t, svc.MarkPaid(ctx, "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.MarkPaid(ctx, ""), ErrBadRequest)
}
