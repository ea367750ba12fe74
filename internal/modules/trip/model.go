// README: Trip aggregate, status machine, and merge/breakdown sub-records.
package trip

import (
	"strconv"
	"strings"
	"time"

	"fleetops/internal/types"
)

type Status string

const (
	StatusPending              Status = "pending"
	StatusApproved             Status = "approved"
	StatusRejected             Status = "rejected"
	StatusCancelled            Status = "cancelled"
	StatusBrokenDown           Status = "broken-down"
	StatusReassigned           Status = "reassigned"
	StatusPendingMerge         Status = "pending_merge"
	StatusAwaitingMergeOK      Status = "awaiting_merge_approval"
	StatusApprovedMergeRequest Status = "approved_merge_request"
	StatusMergeRejected        Status = "merge_rejected"
	StatusInProgress           Status = "in-progress"
	StatusCompleted            Status = "completed"
)

// ConflictStatuses are the statuses that bind a vehicle/driver to a trip for
// the trip's date; the availability filter excludes units referenced by any
// trip in this set.
var ConflictStatuses = []Status{
	StatusApproved,
	StatusInProgress,
	StatusReassigned,
	StatusApprovedMergeRequest,
}

// TerminalStatuses never re-enter the merge scan or any admin action.
var TerminalStatuses = []Status{StatusRejected, StatusCancelled, StatusCompleted}

func IsTerminal(s Status) bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Action names every admin/driver input the lifecycle controller accepts.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionStart         Action = "start"
	ActionComplete      Action = "complete"
	ActionBreakdown     Action = "breakdown"
	ActionReassign      Action = "reassign"
	ActionCancel        Action = "cancel"
	ActionFlagMerge     Action = "flag_merge"
	ActionProposeMerge  Action = "propose_merge"
	ActionConsentMerge  Action = "consent_merge"
	ActionRejectMerge   Action = "reject_merge"
	ActionFinalizeMerge Action = "finalize_merge"
	ActionRevertMerge   Action = "revert_merge"
)

// Transitions is the state machine table: (status, action) → next status.
// Every status write in the controller goes through Next so illegal
// transitions are rejected at one chokepoint.
var Transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove:      StatusApproved,
		ActionReject:       StatusRejected,
		ActionFlagMerge:    StatusPendingMerge,
		ActionProposeMerge: StatusAwaitingMergeOK,
	},
	StatusApproved: {
		ActionStart:        StatusInProgress,
		ActionBreakdown:    StatusBrokenDown,
		ActionProposeMerge: StatusAwaitingMergeOK,
	},
	StatusInProgress: {
		ActionComplete:  StatusCompleted,
		ActionBreakdown: StatusBrokenDown,
	},
	StatusBrokenDown: {
		ActionReassign: StatusReassigned,
		ActionCancel:   StatusCancelled,
	},
	StatusReassigned: {
		ActionStart:    StatusInProgress,
		ActionComplete: StatusCompleted,
	},
	StatusPendingMerge: {
		ActionProposeMerge: StatusAwaitingMergeOK,
		ActionReject:       StatusRejected,
		ActionRevertMerge:  StatusPending,
	},
	StatusAwaitingMergeOK: {
		ActionConsentMerge: StatusApprovedMergeRequest,
		ActionRejectMerge:  StatusMergeRejected,
		ActionRevertMerge:  StatusPending,
	},
	StatusApprovedMergeRequest: {
		ActionFinalizeMerge: StatusApproved,
		ActionRevertMerge:   StatusPending,
	},
	StatusMergeRejected: {
		ActionRevertMerge: StatusPending,
	},
}

// Next resolves the transition table for (from, action).
func Next(from Status, action Action) (Status, bool) {
	actions, ok := Transitions[from]
	if !ok {
		return "", false
	}
	to, ok := actions[action]
	return to, ok
}

// Breakdown records a driver-reported failure and the split-cost outcome of
// the subsequent reassignment.
type Breakdown struct {
	Location           *types.Point `firestore:"location"`
	LocationName       string       `firestore:"locationName"`
	OdometerAtFailure  float64      `firestore:"odometerAtFailure"`
	ReportedAt         time.Time    `firestore:"reportedAt"`
	OriginalVehicleID  types.ID     `firestore:"originalVehicleId"`
	OriginalDriverID   types.ID     `firestore:"originalDriverId"`
	CostOriginal       int64        `firestore:"costOriginal"`
	CostReplacement    int64        `firestore:"costReplacement"`
	ReplacementStart   *types.Point `firestore:"replacementStart"`
	ReplacementStartAt string       `firestore:"replacementStartAt"`
}

// Consent values for the two merge parties.
const (
	ConsentPending  = "pending"
	ConsentAccepted = "accepted"
	ConsentRejected = "rejected"
)

// MergeProposal is the ephemeral sub-record mirrored onto both trips of a
// merge pair while the negotiation is open. It is nulled out on revert and
// consumed on finalize.
type MergeProposal struct {
	MasterTripID      types.ID `firestore:"masterTripId"`
	CandidateTripID   types.ID `firestore:"candidateTripId"`
	ProposedVehicleID types.ID `firestore:"proposedVehicleId"`
	ProposedDriverID  types.ID `firestore:"proposedDriverId"`
	Message           string   `firestore:"message"`
	MasterConsent     string   `firestore:"masterConsent"`
	CandidateConsent  string   `firestore:"candidateConsent"`
	// MasterPrevStatus restores the master on revert; the candidate always
	// reverts to pending.
	MasterPrevStatus Status `firestore:"masterPrevStatus"`
}

type Trip struct {
	ID           types.ID      `firestore:"-"`
	SerialNo     string        `firestore:"serialNo"`
	Status       Status        `firestore:"status"`
	Date         string        `firestore:"date"` // YYYY-MM-DD
	Time         string        `firestore:"time"` // HH:MM
	Passengers   int           `firestore:"passengers"`
	RequestedBy  string        `firestore:"requestedBy"`
	Pickup       string        `firestore:"pickup"`
	PickupCoords *types.Point  `firestore:"pickupCoords"`
	Stops        []string      `firestore:"stops"`
	StopCoords   []types.Point `firestore:"stopCoords"`
	Destination  string        `firestore:"destination"`
	DestCoords   *types.Point  `firestore:"destinationCoords"`

	VehicleID types.ID `firestore:"vehicleId"`
	DriverID  types.ID `firestore:"driverId"`

	// Distance is the routed distance in the human-readable form the
	// routing collaborator returns, e.g. "112 km".
	Distance string `firestore:"distance"`
	Cost     int64  `firestore:"cost"`
	Currency string `firestore:"currency"`

	// OdometerStart is recorded when the driver starts the trip and feeds
	// the breakdown split cost.
	OdometerStart float64    `firestore:"odometerStart"`
	StartedAt     *time.Time `firestore:"startedAt"`
	CompletedAt   *time.Time `firestore:"completedAt"`

	ApprovedBy   string     `firestore:"approvedBy"`
	ApprovedAt   *time.Time `firestore:"approvedAt"`
	RejectedBy   string     `firestore:"rejectedBy"`
	RejectedAt   *time.Time `firestore:"rejectedAt"`
	RejectReason string     `firestore:"rejectReason"`
	CancelledBy  string     `firestore:"cancelledBy"`
	CancelledAt  *time.Time `firestore:"cancelledAt"`
	CreatedAt    time.Time  `firestore:"createdAt"`

	// MasterTripID links a flagged merge candidate to its master until the
	// negotiation resolves.
	MasterTripID types.ID       `firestore:"masterTripId"`
	Merge        *MergeProposal `firestore:"merge"`
	Breakdown    *Breakdown     `firestore:"breakdown"`
}

// DistanceKm parses the leading number of the stored distance string.
// Anything after the number (units, separators) is ignored; unparseable
// distances count as 0.
func (t *Trip) DistanceKm() float64 {
	return ParseLeadingKm(t.Distance)
}

func ParseLeadingKm(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// PlaceName strips the " - " qualifier from a location string, leaving the
// leading place name the merge scanner compares on.
func PlaceName(location string) string {
	if i := strings.Index(location, " - "); i >= 0 {
		return strings.TrimSpace(location[:i])
	}
	return strings.TrimSpace(location)
}

// Conflicting collects the vehicle and driver IDs bound by trips in the
// conflict-status set on the given date.
func Conflicting(trips []*Trip, date string) (vehicles, drivers map[types.ID]bool) {
	vehicles = make(map[types.ID]bool)
	drivers = make(map[types.ID]bool)
	for _, t := range trips {
		if t.Date != date {
			continue
		}
		if !inConflictSet(t.Status) {
			continue
		}
		if t.VehicleID != "" {
			vehicles[t.VehicleID] = true
		}
		if t.DriverID != "" {
			drivers[t.DriverID] = true
		}
	}
	return vehicles, drivers
}

func inConflictSet(s Status) bool {
	for _, c := range ConflictStatuses {
		if s == c {
			return true
		}
	}
	return false
}
