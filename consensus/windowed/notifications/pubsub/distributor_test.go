package pubsub_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slatewise/agreement/consensus/windowed"
	"github.com/slatewise/agreement/consensus/windowed/notifications"
	"github.com/slatewise/agreement/consensus/windowed/notifications/pubsub"
	"github.com/slatewise/agreement/consensus/windowed/tally"
	"github.com/slatewise/agreement/utils/unittest"
)

func TestVotingDistributor_FansOut(t *testing.T) {
	distributor := pubsub.NewVotingDistributor[float64, uint32, uint64]()

	var edges, faults, confirms, votes int
	distributor.AddOnEdgeConsumer(func(time.Time, map[float64]uint64) { edges++ })
	distributor.AddOnFaultConsumer(func(uint32) { faults++ })
	distributor.AddOnConfirmConsumer(func(float64, uint64) { confirms++ })
	distributor.AddOnVoteConsumer(func(float64, time.Time) { votes++ })
	distributor.AddConsumer(&notifications.NoopConsumer[float64, uint32, uint64]{})

	distributor.OnEdge(unittest.At(1000), map[float64]uint64{1.0: 1})
	distributor.OnEquivocationDetected(0)
	distributor.OnObjectConfirmed(1.0, 3)
	distributor.OnVoteDeclared(1.0, unittest.At(1000))

	require.Equal(t, 1, edges)
	require.Equal(t, 1, faults)
	require.Equal(t, 1, confirms)
	require.Equal(t, 1, votes)
}

// Distributor method values plug directly into the core's callback
// parameters.
func TestVotingDistributor_AsCallbacks(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node, err := windowed.New[float64, uint32, uint64](unittest.Window, 0)
	require.NoError(t, err)
	node.Insert(1, unittest.At(1000), 0)
	node.Insert(2, unittest.At(1001), 0)

	distributor := pubsub.NewVotingDistributor[float64, uint32, uint64]()
	var edges, faults int
	distributor.AddOnEdgeConsumer(func(time.Time, map[float64]uint64) { edges++ })
	distributor.AddOnFaultConsumer(func(uint32) { faults++ })

	tly := tally.New[float64, uint32, uint64]()
	node.Scan(tly, unittest.TimeMin, unittest.TimeMax, validators, distributor.OnEdge, distributor.OnEquivocationDetected)
	require.Equal(t, 1, faults)
	require.Equal(t, 4, edges)
}
