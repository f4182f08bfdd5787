package windowed

import (
	"sort"
	"time"

	"github.com/slatewise/agreement/consensus/windowed/model"
	"github.com/slatewise/agreement/consensus/windowed/tally"
)

// Scan sweeps the vote log across [begin, end] in time order, feeding
// rise and fall events into the given tally and emitting an edge
// callback after each batch of simultaneous events.
//
// Two cursors advance left to right. The upper cursor applies rises in
// log order; the lower cursor trails it, applying the matching expiry
// at each vote's time plus one window. Neither event stream is
// materialised: expiries are interleaved on the fly whenever the next
// rise lies at least one window past the oldest unexpired vote. After
// the upper cursor passes end, remaining expiries strictly before end
// are drained.
//
// An edge is emitted after each batch of equal-time rises and after
// each batch of equal-time expiries, so the callback count is bounded
// by the number of distinct rise times plus the number of distinct
// expiry times. A rise and an expiry at the same time yield two edges.
// Edge times are non-decreasing. Equivocation is reported through
// fault at rise time only.
//
// Both callbacks may be nil.
func (a *Agreement[O, V, W]) Scan(t *tally.Tally[O, V, W], begin, end time.Time, validators model.ValidatorSet[V, W], edge model.EdgeFunc[O, W], fault model.FaultFunc[V]) {
	cur := sort.Search(len(a.votes), func(i int) bool {
		return !a.votes[i].Time.Before(begin)
	})
	stop := sort.Search(len(a.votes), func(i int) bool {
		return a.votes[i].Time.After(end)
	})
	low := cur
	for cur < stop {
		at := a.votes[cur].Time
		// Expire everything at least one window older than the rise
		// about to be applied. The cursor cannot pass cur: at+W > at.
		for !a.votes[low].Time.Add(a.window).After(at) {
			fallen := a.votes[low]
			t.Fall(fallen.Time, fallen.Validator, fallen.Object)
			low++
			if low == stop || !a.votes[low].Time.Equal(fallen.Time) {
				if edge != nil {
					edge(fallen.Time.Add(a.window), t.Totals())
				}
			}
		}
		rising := a.votes[cur]
		t.Rise(rising.Time, rising.Validator, rising.Object, validators, fault)
		cur++
		if cur == stop || !a.votes[cur].Time.Equal(at) {
			if edge != nil {
				edge(at, t.Totals())
			}
		}
	}
	for low < stop && a.votes[low].Time.Add(a.window).Before(end) {
		fallen := a.votes[low]
		t.Fall(fallen.Time, fallen.Validator, fallen.Object)
		low++
		if low == stop || !a.votes[low].Time.Equal(fallen.Time) {
			if edge != nil {
				edge(fallen.Time.Add(a.window), t.Totals())
			}
		}
	}
}
