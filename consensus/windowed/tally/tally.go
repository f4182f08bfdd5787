// Package tally implements the rolling weighted multiset at the heart
// of windowed agreement: the set of currently active votes, as a
// weighted mapping from object to accumulated support.
//
// A Tally is driven externally. The scanner calls Rise when a vote
// enters the sliding window and Fall when it leaves; the Tally itself
// is stateless with respect to time.
package tally

import (
	"sort"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/slatewise/agreement/consensus/windowed/model"
)

// slot is the single "open" vote a validator may hold. A zero time
// marks the slot inactive.
type slot[O constraints.Ordered, W constraints.Unsigned] struct {
	object O
	time   time.Time
	weight W
}

// entry is one (weight, object) pair of the rank index.
type entry[O constraints.Ordered, W constraints.Unsigned] struct {
	weight W
	object O
}

// Tally transforms a sequence of rising and falling vote edges into an
// ordered weighted sum map. It maintains:
//
//   - at most one active vote per validator,
//   - per-object accumulated weights, retaining entries that have
//     decayed to zero,
//   - a rank index ordered by descending weight for O(1) Max lookup,
//   - the sum of all active weights.
//
// The zero Tally is not usable; construct with New.
type Tally[O constraints.Ordered, V comparable, W constraints.Unsigned] struct {
	active map[V]slot[O, W]
	totals map[O]W
	rank   []entry[O, W]
	total  W
}

func New[O constraints.Ordered, V comparable, W constraints.Unsigned]() *Tally[O, V, W] {
	return &Tally[O, V, W]{
		active: make(map[V]slot[O, W]),
		totals: make(map[O]W),
	}
}

// Rise opens an active vote for the validator.
//
// If the validator has no active vote, the vote is admitted: its
// weight is looked up and added to the object's total. If the
// validator is already actively voting for the same object, only the
// slot's time advances (last write wins; no weight change). If the
// validator is actively voting for a different object, the tally is
// left untouched and the contradiction is reported through fault: the
// original vote remains authoritative until it falls out of the
// window.
func (t *Tally[O, V, W]) Rise(at time.Time, validator V, object O, validators model.ValidatorSet[V, W], fault model.FaultFunc[V]) {
	s := t.active[validator]
	switch {
	case s.time.IsZero():
		s.object = object
		s.time = at
		s.weight = validators.Weight(validator)
		t.active[validator] = s
		t.apply(object, s.weight, false)
	case s.object == object:
		s.time = at
		t.active[validator] = s
	default:
		if fault != nil {
			fault(validator)
		}
	}
}

// Fall closes the validator's active vote, but only if both the time
// and the object match the open slot. A fall scheduled for a rise that
// was rejected as a fault therefore no-ops instead of decrementing.
func (t *Tally[O, V, W]) Fall(at time.Time, validator V, object O) {
	s, ok := t.active[validator]
	if !ok {
		return
	}
	if s.time.Equal(at) && s.object == object {
		t.apply(object, s.weight, true)
		s.time = time.Time{}
		t.active[validator] = s
	}
}

// Max returns the heaviest object and its weight. Ties are broken
// toward the smallest object, which keeps the result deterministic
// across runs. An empty tally yields zero values.
func (t *Tally[O, V, W]) Max() (W, O) {
	if len(t.rank) == 0 {
		var w W
		var o O
		return w, o
	}
	top := t.rank[0]
	return top.weight, top.object
}

// Total returns the sum of all active weights.
func (t *Tally[O, V, W]) Total() W {
	return t.total
}

// Totals returns a copy of the per-object accumulated weights,
// including entries that have decayed to zero.
func (t *Tally[O, V, W]) Totals() map[O]W {
	totals := make(map[O]W, len(t.totals))
	for o, w := range t.totals {
		totals[o] = w
	}
	return totals
}

// Empty reports whether no validator holds an active vote.
func (t *Tally[O, V, W]) Empty() bool {
	for _, s := range t.active {
		if !s.time.IsZero() {
			return false
		}
	}
	return true
}

// Reset returns the tally to its freshly constructed state.
func (t *Tally[O, V, W]) Reset() {
	t.active = make(map[V]slot[O, W])
	t.totals = make(map[O]W)
	t.rank = nil
	t.total = 0
}

// apply moves an object's total by delta, re-sorting the rank index.
// The index and the totals map stay in lockstep: one rank entry per
// totals entry, always positioned by its current weight.
func (t *Tally[O, V, W]) apply(object O, delta W, negate bool) {
	old, existed := t.totals[object]
	if existed {
		i := t.rankPos(old, object)
		t.rank = append(t.rank[:i], t.rank[i+1:]...)
	}
	updated := old + delta
	if negate {
		updated = old - delta
	}
	t.totals[object] = updated
	i := t.rankPos(updated, object)
	t.rank = append(t.rank, entry[O, W]{})
	copy(t.rank[i+1:], t.rank[i:])
	t.rank[i] = entry[O, W]{weight: updated, object: object}
	if negate {
		t.total -= delta
	} else {
		t.total += delta
	}
}

// rankPos returns the index at which (weight, object) sorts within the
// rank: descending by weight, ascending by object among equal weights.
func (t *Tally[O, V, W]) rankPos(weight W, object O) int {
	return sort.Search(len(t.rank), func(i int) bool {
		e := t.rank[i]
		if e.weight != weight {
			return e.weight < weight
		}
		return e.object >= object
	})
}
