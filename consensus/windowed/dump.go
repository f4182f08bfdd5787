package windowed

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/slatewise/agreement/consensus/windowed/model"
	"github.com/slatewise/agreement/consensus/windowed/tally"
)

// DumpEdges scans the node's entire log and writes one CSV line per
// (object, weight) entry of every edge snapshot, in scan order:
//
//	time_ms,object,weight
//
// with time_ms relative to the given epoch. Entries within one edge
// are ordered by object, so equal logs produce byte-identical dumps.
// This is the unit of behavioural comparison between nodes.
func (a *Agreement[O, V, W]) DumpEdges(out io.Writer, validators model.ValidatorSet[V, W], epoch time.Time) error {
	if len(a.votes) == 0 {
		return nil
	}
	end := a.votes[len(a.votes)-1].Time.Add(2 * a.window)
	t := tally.New[O, V, W]()
	var err error
	edge := func(at time.Time, totals map[O]W) {
		if err != nil {
			return
		}
		objects := make([]O, 0, len(totals))
		for o := range totals {
			objects = append(objects, o)
		}
		sort.Slice(objects, func(i, j int) bool { return objects[i] < objects[j] })
		for _, o := range objects {
			if _, werr := fmt.Fprintf(out, "%d,%v,%d\n", at.Sub(epoch).Milliseconds(), o, totals[o]); werr != nil {
				err = werr
				return
			}
		}
	}
	a.Scan(t, time.Time{}, end, validators, edge, nil)
	return err
}
