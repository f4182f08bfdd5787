package model

import (
	"time"

	"golang.org/x/exp/constraints"
)

// VoteEvent is a single observed vote: at Time, Validator declared
// support for Object. Events are stored in the agreement node's log
// exactly as observed; duplicate times and duplicate (validator,
// object) pairs are permitted. Idempotency is enforced by the tally,
// not the log.
type VoteEvent[O constraints.Ordered, V comparable] struct {
	Time      time.Time
	Validator V
	Object    O
}

// EdgeFunc receives the totals snapshot at each event boundary of a
// scan. Entries with weight zero are reported for objects that held
// weight earlier in the scan; observers rely on these "just emptied"
// edges. The map is a copy and may be retained.
type EdgeFunc[O constraints.Ordered, W constraints.Unsigned] func(at time.Time, totals map[O]W)

// FaultFunc receives the identity of a validator whose vote
// contradicts its still-active vote. Reporting is advisory: the first
// vote stays authoritative until it leaves the window.
type FaultFunc[V comparable] func(validator V)

// ConfirmFunc receives the object that sustained quorum and the
// tally's heaviest per-object weight at the confirming edge; that
// weight may already be below quorum (for instance zero at an expiry
// edge). It may be invoked at more than one
// edge during a single tally while quorum keeps holding; callers latch.
type ConfirmFunc[O constraints.Ordered, W constraints.Unsigned] func(object O, weight W)

// VoteFunc receives the node's (possibly just adopted) preferred
// object whenever the node declares a vote.
type VoteFunc[O constraints.Ordered] func(object O, at time.Time)
