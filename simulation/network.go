package simulation

import (
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/slatewise/agreement/consensus/windowed/model"
)

// Config parameterises a simulated network.
type Config struct {
	// Replicas is the total validator count; the first (Replicas-1)/3
	// of them behave byzantine.
	Replicas int
	// Window is the voting window W of every node.
	Window time.Duration
	// Hold is the quorum hold passed to every tally. One millisecond
	// more than the window forces quorum to straddle two vote batches.
	Hold time.Duration
	// Seed drives all randomness; equal seeds replay equal runs up to
	// goroutine interleaving.
	Seed int64
	// MaxSteps bounds the number of deliveries before the run gives
	// up; confirmed replicas until then are still checked for safety.
	MaxSteps int64
	// Workers is the number of concurrent drivers, NumCPU if zero.
	Workers int
	Clock   model.Clock
	Log     zerolog.Logger
}

// DefaultConfig is the smallest interesting network: 4 replicas, one
// byzantine, W = 50ms, hold = 51ms.
func DefaultConfig(seed int64, log zerolog.Logger) Config {
	return Config{
		Replicas: 4,
		Window:   50 * time.Millisecond,
		Hold:     51 * time.Millisecond,
		Seed:     seed,
		MaxSteps: 200_000,
		Clock:    model.SystemClock{},
		Log:      log,
	}
}

// uniformSet is the simulation's validator registry: weight 1 each,
// byzantine quorum threshold.
type uniformSet struct {
	count uint64
}

func (u uniformSet) Weight(validator uint32) uint64 {
	if uint64(validator) < u.count {
		return 1
	}
	return 0
}

func (u uniformSet) Quorum() uint64 {
	return model.QuorumThreshold(u.count)
}

// Network wires replicas to a shared bus and drives random delivery
// until every replica confirmed or the step budget runs out.
type Network struct {
	cfg      Config
	bus      *Bus
	replicas []*Replica
	steps    *atomic.Int64
}

func NewNetwork(cfg Config) (*Network, error) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Clock == nil {
		cfg.Clock = model.SystemClock{}
	}
	validators := uniformSet{count: uint64(cfg.Replicas)}
	byzantine := (cfg.Replicas - 1) / 3
	n := &Network{
		cfg:   cfg,
		bus:   NewBus(cfg.Window),
		steps: atomic.NewInt64(0),
	}
	for i := 0; i < cfg.Replicas; i++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		r, err := newReplica(uint32(i), i >= byzantine, cfg, validators, rng)
		if err != nil {
			return nil, err
		}
		n.replicas = append(n.replicas, r)
	}
	return n, nil
}

// Run lets every replica declare its initial vote, then drives random
// deliveries from concurrent workers until every replica has confirmed
// or MaxSteps deliveries have happened. It returns the set of distinct
// confirmed objects; safety holds iff the set has at most one element.
func (n *Network) Run() []uint16 {
	for _, r := range n.replicas {
		r.mu.Lock()
		r.vote(n.bus)
		r.mu.Unlock()
	}
	pool := workerpool.New(n.cfg.Workers)
	for w := 0; w < n.cfg.Workers; w++ {
		seed := n.cfg.Seed + int64(1000+w)
		pool.Submit(func() {
			rng := rand.New(rand.NewSource(seed))
			for n.confirmedCount() < len(n.replicas) && n.steps.Inc() <= n.cfg.MaxSteps {
				m, ok := n.bus.Get(rng)
				if !ok {
					continue
				}
				replica := n.replicas[rng.Intn(len(n.replicas))]
				replica.Deliver(m)
				replica.Step(n.bus)
			}
		})
	}
	pool.StopWait()
	return n.ConfirmedObjects()
}

// ConfirmedObjects returns the distinct objects confirmed so far, in
// ascending order.
func (n *Network) ConfirmedObjects() []uint16 {
	seen := map[uint16]struct{}{}
	for _, r := range n.replicas {
		if object, ok := r.Confirmed(); ok {
			seen[object] = struct{}{}
		}
	}
	objects := make([]uint16, 0, len(seen))
	for o := range seen {
		objects = append(objects, o)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i] < objects[j] })
	return objects
}

func (n *Network) confirmedCount() int {
	count := 0
	for _, r := range n.replicas {
		if _, ok := r.Confirmed(); ok {
			count++
		}
	}
	return count
}
