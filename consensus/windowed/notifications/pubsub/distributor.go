// Package pubsub distributes voting events to dynamically registered
// consumers.
package pubsub

import (
	"sync"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/slatewise/agreement/consensus/windowed/model"
	"github.com/slatewise/agreement/consensus/windowed/notifications"
)

// VotingDistributor fans each voting event out to all registered
// consumers. Its methods satisfy notifications.Consumer, and its
// method values satisfy the core's callback types, so a distributor
// can be handed directly to Scan, Tally, and Vote.
type VotingDistributor[O constraints.Ordered, V comparable, W constraints.Unsigned] struct {
	edgeConsumers    []model.EdgeFunc[O, W]
	faultConsumers   []model.FaultFunc[V]
	confirmConsumers []model.ConfirmFunc[O, W]
	voteConsumers    []model.VoteFunc[O]
	consumers        []notifications.Consumer[O, V, W]
	lock             sync.RWMutex
}

var _ notifications.Consumer[int, int, uint] = (*VotingDistributor[int, int, uint])(nil)

func NewVotingDistributor[O constraints.Ordered, V comparable, W constraints.Unsigned]() *VotingDistributor[O, V, W] {
	return &VotingDistributor[O, V, W]{}
}

func (d *VotingDistributor[O, V, W]) AddOnEdgeConsumer(consumer model.EdgeFunc[O, W]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.edgeConsumers = append(d.edgeConsumers, consumer)
}

func (d *VotingDistributor[O, V, W]) AddOnFaultConsumer(consumer model.FaultFunc[V]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.faultConsumers = append(d.faultConsumers, consumer)
}

func (d *VotingDistributor[O, V, W]) AddOnConfirmConsumer(consumer model.ConfirmFunc[O, W]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.confirmConsumers = append(d.confirmConsumers, consumer)
}

func (d *VotingDistributor[O, V, W]) AddOnVoteConsumer(consumer model.VoteFunc[O]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.voteConsumers = append(d.voteConsumers, consumer)
}

func (d *VotingDistributor[O, V, W]) AddConsumer(consumer notifications.Consumer[O, V, W]) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.consumers = append(d.consumers, consumer)
}

func (d *VotingDistributor[O, V, W]) OnEdge(at time.Time, totals map[O]W) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.edgeConsumers {
		consumer(at, totals)
	}
	for _, consumer := range d.consumers {
		consumer.OnEdge(at, totals)
	}
}

func (d *VotingDistributor[O, V, W]) OnEquivocationDetected(validator V) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.faultConsumers {
		consumer(validator)
	}
	for _, consumer := range d.consumers {
		consumer.OnEquivocationDetected(validator)
	}
}

func (d *VotingDistributor[O, V, W]) OnObjectConfirmed(object O, weight W) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.confirmConsumers {
		consumer(object, weight)
	}
	for _, consumer := range d.consumers {
		consumer.OnObjectConfirmed(object, weight)
	}
}

func (d *VotingDistributor[O, V, W]) OnVoteDeclared(object O, at time.Time) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.voteConsumers {
		consumer(object, at)
	}
	for _, consumer := range d.consumers {
		consumer.OnVoteDeclared(object, at)
	}
}
