// Package metrics provides prometheus collectors for the voting core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/constraints"

	"github.com/slatewise/agreement/consensus/windowed/notifications"
)

const (
	namespaceConsensus = "consensus"
	subsystemWindowed  = "windowed"
)

// VotingCollector counts the events a windowed agreement node emits.
// It satisfies notifications.Consumer for any instantiation, so it can
// be registered on a distributor next to logging.
type VotingCollector[O constraints.Ordered, V comparable, W constraints.Unsigned] struct {
	edges         prometheus.Counter
	equivocations prometheus.Counter
	confirmations prometheus.Counter
	votesDeclared prometheus.Counter
	edgeObjects   prometheus.Histogram
}

var _ notifications.Consumer[int, int, uint] = (*VotingCollector[int, int, uint])(nil)

// NewVotingCollector creates the collector and registers all of its
// metrics with the given registerer.
func NewVotingCollector[O constraints.Ordered, V comparable, W constraints.Unsigned](registerer prometheus.Registerer) *VotingCollector[O, V, W] {
	edges := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceConsensus,
		Subsystem: subsystemWindowed,
		Name:      "edges_total",
		Help:      "the number of edge snapshots emitted by scans",
	})
	equivocations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceConsensus,
		Subsystem: subsystemWindowed,
		Name:      "equivocations_total",
		Help:      "the number of contradicting votes observed within their window",
	})
	confirmations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceConsensus,
		Subsystem: subsystemWindowed,
		Name:      "confirmations_total",
		Help:      "the number of confirm callbacks fired",
	})
	votesDeclared := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceConsensus,
		Subsystem: subsystemWindowed,
		Name:      "votes_declared_total",
		Help:      "the number of outgoing votes declared",
	})
	edgeObjects := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespaceConsensus,
		Subsystem: subsystemWindowed,
		Name:      "edge_objects",
		Help:      "the number of distinct objects per edge snapshot",
		Buckets:   []float64{1, 2, 4, 8, 16, 32},
	})
	registerer.MustRegister(edges, equivocations, confirmations, votesDeclared, edgeObjects)
	vc := &VotingCollector[O, V, W]{
		edges:         edges,
		equivocations: equivocations,
		confirmations: confirmations,
		votesDeclared: votesDeclared,
		edgeObjects:   edgeObjects,
	}
	return vc
}

func (vc *VotingCollector[O, V, W]) OnEdge(at time.Time, totals map[O]W) {
	vc.edges.Inc()
	vc.edgeObjects.Observe(float64(len(totals)))
}

func (vc *VotingCollector[O, V, W]) OnEquivocationDetected(validator V) {
	vc.equivocations.Inc()
}

func (vc *VotingCollector[O, V, W]) OnObjectConfirmed(object O, weight W) {
	vc.confirmations.Inc()
}

func (vc *VotingCollector[O, V, W]) OnVoteDeclared(object O, at time.Time) {
	vc.votesDeclared.Inc()
}
