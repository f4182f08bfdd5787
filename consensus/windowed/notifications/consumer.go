// Package notifications provides consumer interfaces for the events a
// windowed agreement node emits, plus ready-made consumers for
// logging and for doing nothing.
package notifications

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Consumer consumes outbound events of the voting core. Implementations
// must be non-blocking: events are delivered synchronously from inside
// scans and votes.
type Consumer[O constraints.Ordered, V comparable, W constraints.Unsigned] interface {
	// OnEdge is called at each distinct event boundary of a scan with
	// the totals snapshot at that time.
	OnEdge(at time.Time, totals map[O]W)

	// OnEquivocationDetected is called when a validator's vote
	// contradicts its still-active vote.
	OnEquivocationDetected(validator V)

	// OnObjectConfirmed is called when an object has sustained quorum
	// for the configured hold. May fire more than once per tally.
	OnObjectConfirmed(object O, weight W)

	// OnVoteDeclared is called when a node declares its preferred
	// object.
	OnVoteDeclared(object O, at time.Time)
}

// NoopConsumer is a Consumer that does nothing.
type NoopConsumer[O constraints.Ordered, V comparable, W constraints.Unsigned] struct{}

var _ Consumer[int, int, uint] = (*NoopConsumer[int, int, uint])(nil)

func (*NoopConsumer[O, V, W]) OnEdge(time.Time, map[O]W) {}

func (*NoopConsumer[O, V, W]) OnEquivocationDetected(V) {}

func (*NoopConsumer[O, V, W]) OnObjectConfirmed(O, W) {}

func (*NoopConsumer[O, V, W]) OnVoteDeclared(O, time.Time) {}
