package windowed_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatewise/agreement/consensus/windowed/tally"
	"github.com/slatewise/agreement/utils/unittest"
)

// edgeLog collects edge callbacks of one scan.
type edgeLog struct {
	times  []time.Time
	totals []map[float64]uint64
}

func (e *edgeLog) edge(at time.Time, totals map[float64]uint64) {
	e.times = append(e.times, at)
	e.totals = append(e.totals, totals)
}

func TestScan_EmptyLog(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)
	require.Empty(t, edges.times)
}

// One vote yields a rise edge and, one window later, an expiry edge
// that still reports the emptied object at weight zero.
func TestScan_OneVote(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	now := unittest.At(1000)
	node.Insert(1, now, 0)

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)

	require.Len(t, edges.times, 2)
	require.Equal(t, now, edges.times[0])
	require.Equal(t, map[float64]uint64{1.0: 1}, edges.totals[0])
	require.Equal(t, now.Add(W), edges.times[1])
	require.Equal(t, map[float64]uint64{1.0: 0}, edges.totals[1])
}

// Two same-object votes at distinct times yield four edges with the
// accumulated weight stepping 1, 2, 1, 0.
func TestScan_TwoVotesSameObject(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	now1 := unittest.At(1000)
	now2 := unittest.At(1001)
	node.Insert(1, now1, 0)
	node.Insert(1, now2, 1)

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)

	require.Len(t, edges.times, 4)
	require.Equal(t, []time.Time{now1, now2, now1.Add(W), now2.Add(W)}, edges.times)
	require.Equal(t, map[float64]uint64{1.0: 1}, edges.totals[0])
	require.Equal(t, map[float64]uint64{1.0: 2}, edges.totals[1])
	require.Equal(t, map[float64]uint64{1.0: 1}, edges.totals[2])
	require.Equal(t, map[float64]uint64{1.0: 0}, edges.totals[3])
}

// Two votes on different objects: every snapshot carries both totals
// once both objects have been seen, including the zero entries.
func TestScan_TwoVotesDifferentObjects(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	now1 := unittest.At(1000)
	now2 := unittest.At(1001)
	node.Insert(1, now1, 0)
	node.Insert(2, now2, 1)

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)

	require.Len(t, edges.times, 4)
	require.Equal(t, map[float64]uint64{1.0: 1}, edges.totals[0])
	require.Equal(t, map[float64]uint64{1.0: 1, 2.0: 1}, edges.totals[1])
	require.Equal(t, map[float64]uint64{1.0: 0, 2.0: 1}, edges.totals[2])
	require.Equal(t, map[float64]uint64{1.0: 0, 2.0: 0}, edges.totals[3])
}

// Simultaneous votes are batched into a single edge per distinct time.
func TestScan_SimultaneousVotes(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	now := unittest.At(1000)
	node.Insert(1, now, 0)
	node.Insert(1, now, 1)

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)

	require.Len(t, edges.times, 2)
	require.Equal(t, now, edges.times[0])
	require.Equal(t, map[float64]uint64{1.0: 2}, edges.totals[0])
	require.Equal(t, now.Add(W), edges.times[1])
	require.Equal(t, map[float64]uint64{1.0: 0}, edges.totals[1])
}

// Faults are reported during the rise phase only, and a fault leaves
// the edge stream's totals untouched.
func TestScan_FaultAtRiseOnly(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	now := unittest.At(1000)
	node.Insert(1, now, 0)
	node.Insert(2, now.Add(time.Millisecond), 0)

	var faults []uint32
	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, func(v uint32) {
		faults = append(faults, v)
	})

	require.Equal(t, []uint32{0}, faults)
	// Object 2.0 never accumulates weight: its rise was rejected and
	// its scheduled fall no-ops.
	for _, totals := range edges.totals {
		assert.EqualValues(t, 0, totals[2.0])
	}
	// The final snapshot is fully drained.
	require.Equal(t, map[float64]uint64{1.0: 0}, edges.totals[len(edges.totals)-1])
}

// Edge times never decrease, regardless of insertion order.
func TestScan_Monotonic(t *testing.T) {
	validators := unittest.NewUniformValidators(10)
	node := newNode(t, 0)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		node.Insert(float64(rng.Intn(4)), unittest.At(int64(1000+rng.Intn(400))), uint32(rng.Intn(10)))
	}

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, edges.edge, nil)

	require.NotEmpty(t, edges.times)
	for i := 1; i < len(edges.times); i++ {
		require.False(t, edges.times[i].Before(edges.times[i-1]),
			"edge %d at %v precedes edge %d at %v", i, edges.times[i], i-1, edges.times[i-1])
	}
}

// Scanning a subrange applies only the events inside [begin, end].
func TestScan_Bounded(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)
	node.Insert(1, unittest.At(1000), 0)
	node.Insert(1, unittest.At(1100), 1)

	edges := &edgeLog{}
	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.At(1100), unittest.At(1100), validators, edges.edge, nil)

	require.Len(t, edges.times, 1)
	require.Equal(t, unittest.At(1100), edges.times[0])
	require.Equal(t, map[float64]uint64{1.0: 1}, edges.totals[0])
}
