// README: Two-party merge negotiation: propose, consent, finalize, revert.
package trip

import (
	"context"
	"time"

	"fleetops/internal/audit"
	"fleetops/internal/modules/costing"
	"fleetops/internal/modules/fleet"
)

// ProposeMerge attaches a mirrored consolidation proposal to a flagged
// candidate and its master. The consolidation vehicle must seat the combined
// passengers and the driver must qualify for it. Both documents change in one
// transaction; external notification of the two parties happens elsewhere.
func (s *Service) ProposeMerge(ctx context.Context, cmd ProposeMergeCommand) error {
	if cmd.VehicleID == "" || cmd.DriverID == "" {
		return ErrBadRequest
	}
	err := s.store.RunTransaction(ctx, func(tx Tx) error {
		cand, err := tx.Trip(cmd.CandidateTripID)
		if err != nil {
			return err
		}
		candNext, ok := Next(cand.Status, ActionProposeMerge)
		if !ok {
			return ErrInvalidState
		}
		if cand.MasterTripID == "" {
			return ErrBadRequest
		}
		master, err := tx.Trip(cand.MasterTripID)
		if err != nil {
			return err
		}
		masterNext, ok := Next(master.Status, ActionProposeMerge)
		if !ok {
			return ErrInvalidState
		}
		v, err := tx.Vehicle(cmd.VehicleID)
		if err != nil {
			return err
		}
		d, err := tx.Driver(cmd.DriverID)
		if err != nil {
			return err
		}
		if v.Seats < master.Passengers+cand.Passengers {
			return ErrCapacity
		}
		if !fleet.Qualifies(d.LicenseClass, v.LicenseClass) {
			return ErrLicenseMismatch
		}

		proposal := &MergeProposal{
			MasterTripID:      master.ID,
			CandidateTripID:   cand.ID,
			ProposedVehicleID: v.ID,
			ProposedDriverID:  d.ID,
			Message:           cmd.Message,
			MasterConsent:     ConsentPending,
			CandidateConsent:  ConsentPending,
			MasterPrevStatus:  master.Status,
		}
		master.Status = masterNext
		master.Merge = proposal
		cand.Status = candNext
		candCopy := *proposal
		cand.Merge = &candCopy

		tx.PutTrip(master)
		tx.PutTrip(cand)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "merges",
		Action:     "propose",
		Details:    cmd.Message,
		TargetID:   string(cmd.CandidateTripID),
	})
	return nil
}

// RecordConsent stores one party's answer on both documents. A rejection
// moves the pair to merge_rejected; once both parties accept, the pair moves
// to approved_merge_request and becomes eligible for finalization.
func (s *Service) RecordConsent(ctx context.Context, cmd ConsentCommand) error {
	if cmd.Party != PartyMaster && cmd.Party != PartyCandidate {
		return ErrBadRequest
	}
	return s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		if t.Merge == nil || t.Status != StatusAwaitingMergeOK {
			return ErrInvalidState
		}
		master, cand, err := s.mergePair(tx, t)
		if err != nil {
			return err
		}

		consent := ConsentAccepted
		if !cmd.Accept {
			consent = ConsentRejected
		}
		for _, doc := range []*Trip{master, cand} {
			if cmd.Party == PartyMaster {
				doc.Merge.MasterConsent = consent
			} else {
				doc.Merge.CandidateConsent = consent
			}
		}

		switch {
		case consent == ConsentRejected:
			next, ok := Next(StatusAwaitingMergeOK, ActionRejectMerge)
			if !ok {
				return ErrInvalidState
			}
			master.Status = next
			cand.Status = next
		case master.Merge.MasterConsent == ConsentAccepted && master.Merge.CandidateConsent == ConsentAccepted:
			next, ok := Next(StatusAwaitingMergeOK, ActionConsentMerge)
			if !ok {
				return ErrInvalidState
			}
			master.Status = next
			cand.Status = next
		}

		tx.PutTrip(master)
		tx.PutTrip(cand)
		return nil
	})
}

// FinalizeMerge folds the candidate into the master atomically: the master
// is approved with an M serial, summed passengers, concatenated stops, and
// the frozen (or recomputed) cost; the candidate document is deleted; the
// proposed vehicle and driver end up in use referencing the master only.
// Unit freshness is re-verified inside the transaction so a reassignment that
// raced the finalize aborts it instead of being clobbered.
func (s *Service) FinalizeMerge(ctx context.Context, cmd FinalizeMergeCommand) error {
	serial, err := s.store.NextSerial(ctx, SerialMerge)
	if err != nil {
		return err
	}

	// Recompute path needs routing, which must stay outside the
	// transaction.
	var combinedKm float64
	if s.merge.RecomputeCost {
		if master, err := s.store.Trip(ctx, cmd.MasterTripID); err == nil {
			combinedKm = master.DistanceKm()
			if master.Merge != nil {
				if cand, err := s.store.Trip(ctx, master.Merge.CandidateTripID); err == nil {
					combinedKm += cand.DistanceKm()
				}
			}
		}
	}

	err = s.store.RunTransaction(ctx, func(tx Tx) error {
		master, err := tx.Trip(cmd.MasterTripID)
		if err != nil {
			return err
		}
		next, ok := Next(master.Status, ActionFinalizeMerge)
		if !ok {
			return ErrInvalidState
		}
		if master.Merge == nil {
			return ErrInvalidState
		}
		if master.Merge.MasterConsent != ConsentAccepted || master.Merge.CandidateConsent != ConsentAccepted {
			return ErrInvalidState
		}
		cand, err := tx.Trip(master.Merge.CandidateTripID)
		if err != nil {
			return err
		}
		v, err := tx.Vehicle(master.Merge.ProposedVehicleID)
		if err != nil {
			return err
		}
		d, err := tx.Driver(master.Merge.ProposedDriverID)
		if err != nil {
			return err
		}
		if v.Status == fleet.StatusInUse && v.CurrentTripID != master.ID {
			return ErrConflict
		}
		if v.Status == fleet.StatusInMaintenance {
			return ErrUnavailable
		}
		if d.Status == fleet.StatusInUse && d.CurrentTripID != master.ID {
			return ErrConflict
		}

		now := time.Now()
		master.Status = next
		master.SerialNo = serial
		master.Passengers = master.Passengers + cand.Passengers
		master.Stops = append(master.Stops, cand.Stops...)
		master.StopCoords = append(master.StopCoords, cand.StopCoords...)
		master.Cost = costing.MergeCost(master.Cost, s.merge.RecomputeCost, combinedKm, v.RatePerKm)
		master.VehicleID = v.ID
		master.DriverID = d.ID
		master.Merge = nil
		master.MasterTripID = ""
		master.ApprovedBy = cmd.AdminEmail
		master.ApprovedAt = &now

		v.Status = fleet.StatusInUse
		v.CurrentTripID = master.ID
		d.Status = fleet.StatusInUse
		d.CurrentTripID = master.ID

		tx.PutTrip(master)
		tx.DeleteTrip(cand.ID)
		tx.PutVehicle(v)
		tx.PutDriver(d)
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "merges",
		Action:     "finalize",
		Details:    "merge finalized with serial " + serial,
		TargetID:   string(cmd.MasterTripID),
	})
	return nil
}

// CancelMerge reverts an open or rejected negotiation: the master returns to
// its pre-proposal status, the candidate to pending, and all proposal fields
// are cleared on both documents in one transaction.
func (s *Service) CancelMerge(ctx context.Context, cmd CancelMergeCommand) error {
	err := s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		if t.Merge == nil {
			return ErrInvalidState
		}
		if _, ok := Next(t.Status, ActionRevertMerge); !ok {
			return ErrInvalidState
		}
		master, cand, err := s.mergePair(tx, t)
		if err != nil {
			return err
		}

		master.Status = master.Merge.MasterPrevStatus
		master.Merge = nil
		cand.Status = StatusPending
		cand.Merge = nil
		cand.MasterTripID = ""

		tx.PutTrip(master)
		tx.PutTrip(cand)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "merges",
		Action:     "cancel",
		TargetID:   string(cmd.TripID),
	})
	return nil
}

// mergePair resolves both sides of a negotiation from either document. A
// missing counterpart is a data-integrity gap that aborts the operation.
func (s *Service) mergePair(tx Tx, t *Trip) (master, cand *Trip, err error) {
	if t.Merge == nil {
		return nil, nil, ErrInvalidState
	}
	if t.ID == t.Merge.MasterTripID {
		master = t
		cand, err = tx.Trip(t.Merge.CandidateTripID)
	} else {
		cand = t
		master, err = tx.Trip(t.Merge.MasterTripID)
	}
	if err != nil {
		return nil, nil, err
	}
	if master.Merge == nil || cand.Merge == nil {
		return nil, nil, ErrInvalidState
	}
	return master, cand, nil
}
