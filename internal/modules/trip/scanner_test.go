// README: Merge scanner tests.
package trip

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/types"
)

func seedScanTrip(t *testing.T, store *MemStore, id types.ID, date, pickup, destination, distance string) *Trip {
	t.Helper()
	tr := &Trip{
		ID:          id,
		Status:      StatusPending,
		Date:        date,
		Passengers:  4,
		Pickup:      pickup,
		Destination: destination,
		Distance:    distance,
		Currency:    "LKR",
	}
	require.NoError(t, store.Create(context.Background(), tr))
	return tr
}

func TestScanFlagsIntersectingPair(t *testing.T) {
	store := NewMemStore()
	seedScanTrip(t, store, "a", "2025-06-01", "Colombo - Fort Station", "Kandy - Temple Road", "100 km")
	seedScanTrip(t, store, "b", "2025-06-01", "Colombo - Pettah", "Kandy - Peradeniya", "80 km")
	scanner := NewScanner(store, zerolog.Nop())

	n, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the shorter trip becomes the candidate of the longer one
	a, _ := store.Trip(context.Background(), "a")
	b, _ := store.Trip(context.Background(), "b")
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, StatusPendingMerge, b.Status)
	assert.Equal(t, types.ID("a"), b.MasterTripID)

	// a second run flags nothing new
	n, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScanSkipsNonMatches(t *testing.T) {
	store := NewMemStore()
	seedScanTrip(t, store, "a", "2025-06-01", "Colombo - Fort", "Kandy - Centre", "100 km")
	// different date
	seedScanTrip(t, store, "b", "2025-06-02", "Colombo - Pettah", "Kandy - Centre", "80 km")
	// same date, disjoint places
	seedScanTrip(t, store, "c", "2025-06-01", "Galle - Harbour", "Matara - Bus Stand", "60 km")
	scanner := NewScanner(store, zerolog.Nop())

	n, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, id := range []types.ID{"a", "b", "c"} {
		tr, _ := store.Trip(context.Background(), id)
		assert.Equal(t, StatusPending, tr.Status, "trip %s", id)
		assert.Empty(t, tr.MasterTripID)
	}
}

func TestScanMasterNeedsEqualOrLargerDistance(t *testing.T) {
	store := NewMemStore()
	// equal distances: each qualifies as the other's master, first match wins
	seedScanTrip(t, store, "a", "2025-06-01", "Colombo - Fort", "Kandy - Centre", "100 km")
	seedScanTrip(t, store, "b", "2025-06-01", "Colombo - Pettah", "Kandy - Lake", "100 km")
	scanner := NewScanner(store, zerolog.Nop())

	n, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, _ := store.Trip(context.Background(), "a")
	b, _ := store.Trip(context.Background(), "b")
	flagged := 0
	if a.Status == StatusPendingMerge {
		flagged++
		assert.Equal(t, types.ID("b"), a.MasterTripID)
	}
	if b.Status == StatusPendingMerge {
		flagged++
		assert.Equal(t, types.ID("a"), b.MasterTripID)
	}
	assert.Equal(t, 1, flagged, "exactly one side is flagged")
}

func TestScanOneMasterPerCandidate(t *testing.T) {
	store := NewMemStore()
	seedScanTrip(t, store, "m1", "2025-06-01", "Colombo - Fort", "Kandy - Centre", "120 km")
	seedScanTrip(t, store, "m2", "2025-06-01", "Colombo - Pettah", "Kandy - Lake", "110 km")
	seedScanTrip(t, store, "c1", "2025-06-01", "Colombo - Dematagoda", "Kandy - Hill", "80 km")
	scanner := NewScanner(store, zerolog.Nop())

	n, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	// m2 pairs under m1 and c1 under whichever master was still open; the
	// longest trip is never a candidate
	assert.Equal(t, 2, n)

	c, _ := store.Trip(context.Background(), "c1")
	assert.Equal(t, StatusPendingMerge, c.Status)
	assert.NotEmpty(t, c.MasterTripID)

	m1, _ := store.Trip(context.Background(), "m1")
	assert.NotEqual(t, StatusPendingMerge, m1.Status)
}

func TestKickCoalesces(t *testing.T) {
	s := NewScanner(NewMemStore(), zerolog.Nop())
	// repeated kicks without a running loop must not block
	s.Kick()
	s.Kick()
	s.Kick()
}

func TestPlacesIntersect(t *testing.T) {
	cases := []struct {
		name string
		a, b *Trip
		want bool
	}{
		{
			name: "shared pickup place",
			a:    &Trip{Pickup: "Colombo - Fort", Destination: "Kandy - Centre"},
			b:    &Trip{Pickup: "Colombo - Pettah", Destination: "Jaffna - Nallur"},
			want: true,
		},
		{
			name: "pickup matches destination",
			a:    &Trip{Pickup: "Colombo - Fort", Destination: "Kandy - Centre"},
			b:    &Trip{Pickup: "Kandy - Lake", Destination: "Galle - Harbour"},
			want: true,
		},
		{
			name: "disjoint",
			a:    &Trip{Pickup: "Colombo - Fort", Destination: "Kandy - Centre"},
			b:    &Trip{Pickup: "Galle - Harbour", Destination: "Matara - Bus Stand"},
			want: false,
		},
		{
			name: "no qualifier suffix",
			a:    &Trip{Pickup: "Colombo", Destination: "Kandy"},
			b:    &Trip{Pickup: "Colombo - Fort", Destination: "Ella"},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, placesIntersect(tc.a, tc.b))
		})
	}
}
