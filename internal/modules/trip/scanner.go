// README: Batch merge scanner flagging same-date, route-intersecting trip pairs.
package trip

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Scanner inspects all non-terminal trips and flags merge candidates. It
// holds no state; every run re-reads the store.
type Scanner struct {
	store Store
	log   zerolog.Logger
	kick  chan struct{}
}

func NewScanner(store Store, log zerolog.Logger) *Scanner {
	return &Scanner{store: store, log: log, kick: make(chan struct{}, 1)}
}

// Kick requests an immediate scan from Run without waiting for the next
// tick. Kicks delivered while a scan is already pending coalesce.
func (s *Scanner) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Scan flags every pending trip whose {pickup, destination} place names
// intersect those of another same-date non-terminal trip. The trip with the
// larger parsed distance becomes the master; on a tie the other trip wins.
// Each pending trip takes at most one master, first match wins, and pairs
// already linked are skipped. Returns the number of newly flagged candidates.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	var open []Status
	for st := range Transitions {
		open = append(open, st)
	}
	trips, err := s.store.ByStatus(ctx, open...)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, cand := range trips {
		if cand.Status != StatusPending {
			continue
		}
		for _, master := range trips {
			if master.ID == cand.ID {
				continue
			}
			if master.Date != cand.Date {
				continue
			}
			if !placesIntersect(cand, master) {
				continue
			}
			if cand.MasterTripID == master.ID {
				break // already flagged against this master
			}
			if ParseLeadingKm(master.Distance) < ParseLeadingKm(cand.Distance) {
				continue
			}

			masterID := master.ID
			err := s.store.RunTransaction(ctx, func(tx Tx) error {
				c, err := tx.Trip(cand.ID)
				if err != nil {
					return err
				}
				next, ok := Next(c.Status, ActionFlagMerge)
				if !ok {
					return ErrInvalidState
				}
				// Re-read the master: it may have been flagged as a
				// candidate itself since the snapshot was taken, which
				// would pair the two trips in both directions.
				m, err := tx.Trip(masterID)
				if err != nil {
					return err
				}
				if m.Status == StatusPendingMerge || IsTerminal(m.Status) {
					return ErrConflict
				}
				c.Status = next
				c.MasterTripID = masterID
				tx.PutTrip(c)
				return nil
			})
			if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
				continue // master no longer eligible; try the next one
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				s.log.Error().Err(err).Str("trip", string(cand.ID)).Msg("flagging merge candidate failed")
			}
			if err == nil {
				flagged++
			}
			break // at most one master per candidate
		}
	}
	return flagged, nil
}

// Run executes Scan on a fixed interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}
		n, err := s.Scan(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("merge scan failed")
			continue
		}
		if n > 0 {
			s.log.Info().Int("flagged", n).Msg("merge scan flagged candidates")
		}
	}
}

// placesIntersect compares the leading place names of the two trips'
// {pickup, destination} sets, ignoring the " - " qualifier suffix.
func placesIntersect(a, b *Trip) bool {
	aPlaces := map[string]bool{
		PlaceName(a.Pickup):      true,
		PlaceName(a.Destination): true,
	}
	return aPlaces[PlaceName(b.Pickup)] || aPlaces[PlaceName(b.Destination)]
}
