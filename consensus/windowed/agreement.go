// Package windowed implements a sliding-window voting core for
// byzantine-fault-tolerant agreement.
//
// An Agreement node accumulates time-stamped votes from identified
// validators, tallies weighted support for competing objects over a
// rolling window, detects equivocation, and confirms an object when
// quorum is sustained. Nodes form a DAG through their parent sets:
// confirmation of a descendant logically confirms its ancestors, and a
// node may only adopt a new preferred object once every ancestor's
// last mark is at least one window old.
//
// Nodes are not safe for concurrent use. Distinct nodes may be driven
// from distinct goroutines, but ancestor traversals read and write the
// mark timestamps of shared ancestors, so callers must serialise
// access within any weakly connected component of the DAG.
package windowed

import (
	"sort"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/slatewise/agreement/consensus/windowed/model"
	"github.com/slatewise/agreement/consensus/windowed/tally"
)

// Agreement is one node of the voting DAG. It owns a time-ordered vote
// log, a set of shared references to parent nodes, the currently
// preferred object, and the timestamp of its last mark.
//
// The log is persistent: Insert only ever grows it, and neither Tally
// nor Vote truncates it.
type Agreement[O constraints.Ordered, V comparable, W constraints.Unsigned] struct {
	window  time.Duration
	votes   []model.VoteEvent[O, V]
	parents map[*Agreement[O, V, W]]struct{}
	time    time.Time
	last    O
	clock   model.Clock
}

// Option configures an Agreement during construction.
type Option[O constraints.Ordered, V comparable, W constraints.Unsigned] func(*Agreement[O, V, W])

// WithParents adds the given nodes to the new node's parent set. The
// caller must not introduce a cycle: the DAG points only from
// descendants to ancestors.
func WithParents[O constraints.Ordered, V comparable, W constraints.Unsigned](parents ...*Agreement[O, V, W]) Option[O, V, W] {
	return func(a *Agreement[O, V, W]) {
		for _, p := range parents {
			a.parents[p] = struct{}{}
		}
	}
}

// WithClock replaces the time source consulted by VoteNow. Scans never
// read a clock.
func WithClock[O constraints.Ordered, V comparable, W constraints.Unsigned](clock model.Clock) Option[O, V, W] {
	return func(a *Agreement[O, V, W]) {
		a.clock = clock
	}
}

// New constructs an agreement node with the given window width and
// initial preferred object. The window is immutable afterwards.
// Returns a model.ConfigurationError for a non-positive window, which
// would degenerate the scan's expiry rule.
func New[O constraints.Ordered, V comparable, W constraints.Unsigned](window time.Duration, initial O, opts ...Option[O, V, W]) (*Agreement[O, V, W], error) {
	if window <= 0 {
		return nil, model.NewConfigurationErrorf("window must be positive, got %s", window)
	}
	a := &Agreement[O, V, W]{
		window:  window,
		parents: make(map[*Agreement[O, V, W]]struct{}),
		last:    initial,
		clock:   model.SystemClock{},
	}
	for _, apply := range opts {
		apply(a)
	}
	return a, nil
}

// Window returns the window width.
func (a *Agreement[O, V, W]) Window() time.Duration {
	return a.window
}

// Preferred returns the node's current preferred object.
func (a *Agreement[O, V, W]) Preferred() O {
	return a.last
}

// MarkedAt returns the timestamp of the node's last mark, zero if the
// node has never been marked. The value is shared mutable state: mark
// traversals from any descendant update it.
func (a *Agreement[O, V, W]) MarkedAt() time.Time {
	return a.time
}

// Parents returns the node's current parent set. Confirmation clears
// it: once quorum is durable the node no longer depends on ancestors
// for stability.
func (a *Agreement[O, V, W]) Parents() []*Agreement[O, V, W] {
	parents := make([]*Agreement[O, V, W], 0, len(a.parents))
	for p := range a.parents {
		parents = append(parents, p)
	}
	return parents
}

// Insert appends an observed vote to the log. No deduplication and no
// validation happen here; out-of-order insertion is legal. Events with
// equal times keep their insertion order.
func (a *Agreement[O, V, W]) Insert(object O, at time.Time, validator V) {
	i := sort.Search(len(a.votes), func(i int) bool {
		return a.votes[i].Time.After(at)
	})
	a.votes = append(a.votes, model.VoteEvent[O, V]{})
	copy(a.votes[i+1:], a.votes[i:])
	a.votes[i] = model.VoteEvent[O, V]{Time: at, Validator: validator, Object: object}
}

// Reset returns the node to its uncommitted state on the given object:
// the mark time is zeroed and the preferred object replaced. The vote
// log and the parent set are left untouched.
func (a *Agreement[O, V, W]) Reset(object O) {
	a.time = time.Time{}
	a.last = object
}

// Tally scans the log over [begin, end] and fires confirm the first
// time an object has sustained quorum for at least hold. Pass hold 0
// to confirm at the first edge that follows an edge observing quorum,
// whether or not quorum still stands at that later edge.
//
// Confirmation requires at least one edge after the one that first
// established quorum: the hold clock starts at the edge where quorum
// appears and is read at subsequent edges. While quorum keeps holding,
// confirm may fire at each further edge; callers latch. Firing clears
// the parent set.
func (a *Agreement[O, V, W]) Tally(begin, end time.Time, validators model.ValidatorSet[V, W], confirm model.ConfirmFunc[O, W], fault model.FaultFunc[V], hold time.Duration) {
	t := tally.New[O, V, W]()
	holding := false
	var set time.Time
	obj := a.last
	sampler := func(at time.Time, totals map[O]W) {
		weight, object := t.Max()
		holdingNew := weight >= validators.Quorum()
		if holding && at.Sub(set) >= hold {
			if confirm != nil {
				confirm(obj, weight)
			}
			for p := range a.parents {
				delete(a.parents, p)
			}
		}
		if !holding || obj != object {
			set = at
			obj = object
		}
		holding = holdingNew
	}
	a.Scan(t, begin, end, validators, sampler, fault)
}

// Vote decides whether to adopt the window's plurality as the node's
// new preferred object and then declares a vote for the (possibly
// updated) preference.
//
// The last window [now-W, now] is tallied. If total active weight
// reaches quorum and the plurality differs from the current
// preference, the node checks replaceability: adoption is only legal
// once every ancestor's mark is at least one window old. On adoption
// the node re-marks the ancestor chain at now and declares the new
// preference; if replacement is still barred, no vote is declared and
// the earliest legal replacement time is returned. In every other case
// the node re-marks and re-declares its current preference.
//
// The returned time is when the caller should vote next: now+W after a
// declaration, or the replacement cutoff when adoption was barred.
func (a *Agreement[O, V, W]) Vote(vote model.VoteFunc[O], validators model.ValidatorSet[V, W], now time.Time, fault model.FaultFunc[V]) time.Time {
	t := tally.New[O, V, W]()
	a.Scan(t, now.Add(-a.window), now, validators, nil, fault)
	_, object := t.Max()
	result := now.Add(a.window)
	if t.Total() >= validators.Quorum() && a.last != object {
		when := a.replaceable()
		if !when.After(now) {
			a.last = object
			a.mark(now)
			if vote != nil {
				vote(a.last, now)
			}
		} else {
			result = when
		}
	} else {
		a.mark(now)
		if vote != nil {
			vote(a.last, now)
		}
	}
	return result
}

// VoteNow is Vote at the node clock's current time.
func (a *Agreement[O, V, W]) VoteNow(vote model.VoteFunc[O], validators model.ValidatorSet[V, W], fault model.FaultFunc[V]) time.Time {
	return a.Vote(vote, validators, a.clock.Now(), fault)
}

// forEachAncestor visits the node and every transitive ancestor
// exactly once, in DFS order.
func (a *Agreement[O, V, W]) forEachAncestor(f func(*Agreement[O, V, W])) {
	visited := map[*Agreement[O, V, W]]struct{}{a: {}}
	work := []*Agreement[O, V, W]{a}
	for len(work) > 0 {
		top := work[len(work)-1]
		work = work[:len(work)-1]
		for p := range top.parents {
			if _, ok := visited[p]; !ok {
				visited[p] = struct{}{}
				work = append(work, p)
			}
		}
		f(top)
	}
}

// mark stamps the node and all its ancestors with the given time.
func (a *Agreement[O, V, W]) mark(now time.Time) {
	a.forEachAncestor(func(n *Agreement[O, V, W]) {
		n.time = now
	})
}

// replaceable returns the earliest time at which this node may adopt a
// new preferred object: the maximum of mark+W over the node and all
// its ancestors. Replacements along any ancestor chain are thereby
// spaced at least one window apart.
func (a *Agreement[O, V, W]) replaceable() time.Time {
	var result time.Time
	a.forEachAncestor(func(n *Agreement[O, V, W]) {
		cutoff := n.time.Add(a.window)
		if cutoff.After(result) {
			result = cutoff
		}
	})
	return result
}
