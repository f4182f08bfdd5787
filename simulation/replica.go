package simulation

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ef-ds/deque"
	"go.uber.org/atomic"

	"github.com/slatewise/agreement/consensus/windowed"
	"github.com/slatewise/agreement/consensus/windowed/model"
	"github.com/slatewise/agreement/consensus/windowed/notifications"
)

// Replica is one simulated validator. Honest replicas drive their
// agreement node through the vote protocol; byzantine replicas
// broadcast random objects at times warped up to retentionWindows
// around now. All replicas ingest and tally honestly, so byzantine
// replicas confirm too — the safety check spans every confirmation.
type Replica struct {
	mu         sync.Mutex
	self       uint32
	honest     bool
	window     time.Duration
	hold       time.Duration
	validators model.ValidatorSet[uint32, uint64]
	node       *windowed.Agreement[uint16, uint32, uint64]
	inbox      *deque.Deque
	rng        *rand.Rand
	clock      model.Clock
	consumer   notifications.Consumer[uint16, uint32, uint64]

	agreed    atomic.Bool
	confirmed atomic.Uint32
}

func newReplica(self uint32, honest bool, cfg Config, validators model.ValidatorSet[uint32, uint64], rng *rand.Rand) (*Replica, error) {
	// Each replica anchors its node on a private root, as a stand-in
	// for the ancestry a real ledger would provide.
	root, err := windowed.New[uint16, uint32, uint64](cfg.Window, 0)
	if err != nil {
		return nil, err
	}
	node, err := windowed.New(cfg.Window, uint16(rng.Intn(2)), windowed.WithParents(root))
	if err != nil {
		return nil, err
	}
	return &Replica{
		self:       self,
		honest:     honest,
		window:     cfg.Window,
		hold:       cfg.Hold,
		validators: validators,
		node:       node,
		inbox:      deque.New(),
		rng:        rng,
		clock:      cfg.Clock,
		consumer:   notifications.NewLogConsumer[uint16, uint32, uint64](cfg.Log.With().Uint32("replica", self).Bool("honest", honest).Logger()),
	}, nil
}

// Deliver queues a gossiped vote for the next step.
func (r *Replica) Deliver(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox.PushBack(m)
}

// Step drains the inbox into the vote log, tallies the window around
// the newest ingested vote, and then votes again.
func (r *Replica) Step(bus *Bus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last Message
	ingested := false
	for r.inbox.Len() > 0 {
		v, _ := r.inbox.PopFront()
		last = v.(Message)
		r.node.Insert(last.Object, last.Time, last.Validator)
		ingested = true
	}
	if ingested {
		confirm := func(object uint16, weight uint64) {
			r.consumer.OnObjectConfirmed(object, weight)
			if r.agreed.CompareAndSwap(false, true) {
				r.confirmed.Store(uint32(object))
			}
		}
		begin := last.Time.Add(-r.window + time.Millisecond)
		end := last.Time.Add(r.window)
		r.node.Tally(begin, end, r.validators, confirm, r.consumer.OnEquivocationDetected, r.hold)
	}
	r.vote(bus)
}

// Confirmed returns the object this replica confirmed, false if it has
// not confirmed yet.
func (r *Replica) Confirmed() (uint16, bool) {
	if !r.agreed.Load() {
		return 0, false
	}
	return uint16(r.confirmed.Load()), true
}

func (r *Replica) vote(bus *Bus) {
	now := r.clock.Now()
	if r.honest {
		r.node.Vote(func(object uint16, at time.Time) {
			r.consumer.OnVoteDeclared(object, at)
			bus.Put(Message{Object: object, Time: at, Validator: r.self})
		}, r.validators, now, r.consumer.OnEquivocationDetected)
		return
	}
	warp := time.Duration(r.rng.Int63n(int64(2*retentionWindows*r.window))) - retentionWindows*r.window
	bus.Put(Message{
		Object:    uint16(r.rng.Intn(2)),
		Time:      now.Add(warp),
		Validator: r.self,
	})
}
