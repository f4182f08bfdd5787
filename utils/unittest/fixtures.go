package unittest

import (
	"time"

	"go.uber.org/atomic"

	"github.com/slatewise/agreement/consensus/windowed/model"
)

// Window is the window width used throughout the test suite.
const Window = 50 * time.Millisecond

// Epoch is the base timestamp of the stepping clock.
var Epoch = time.UnixMilli(1000)

// At returns the absolute time ms milliseconds since the unix epoch.
func At(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeMin is earlier than any vote a test inserts.
var TimeMin = time.Time{}

// TimeMax is later than any vote a test inserts, by more than any
// number of windows a scan needs to drain.
var TimeMax = time.UnixMilli(1 << 40)

// UniformValidators is a validator set of n members with weight 1
// each, indexed 0..n-1, and the byzantine quorum n - (n-1)/3.
type UniformValidators struct {
	count uint64
}

var _ model.ValidatorSet[uint32, uint64] = (*UniformValidators)(nil)

func NewUniformValidators(count uint64) *UniformValidators {
	return &UniformValidators{count: count}
}

func (u *UniformValidators) Weight(validator uint32) uint64 {
	if uint64(validator) < u.count {
		return 1
	}
	return 0
}

func (u *UniformValidators) Quorum() uint64 {
	return u.count - (u.count-1)/3
}

func (u *UniformValidators) Size() int {
	return int(u.count)
}

// FixedValidators is a validator set with explicit per-member weights
// and an explicit quorum. Unknown validators weigh 0.
type FixedValidators struct {
	weights map[uint32]uint64
	quorum  uint64
}

var _ model.ValidatorSet[uint32, uint64] = (*FixedValidators)(nil)

func NewFixedValidators(weights map[uint32]uint64, quorum uint64) *FixedValidators {
	return &FixedValidators{weights: weights, quorum: quorum}
}

func (f *FixedValidators) Weight(validator uint32) uint64 {
	return f.weights[validator]
}

func (f *FixedValidators) Quorum() uint64 {
	return f.quorum
}

// SteppingClock hands out strictly increasing timestamps, one
// millisecond apart, starting at Epoch. Safe for concurrent use.
type SteppingClock struct {
	ms atomic.Int64
}

var _ model.Clock = (*SteppingClock)(nil)

func NewSteppingClock() *SteppingClock {
	c := &SteppingClock{}
	c.ms.Store(Epoch.UnixMilli())
	return c
}

func (c *SteppingClock) Now() time.Time {
	return time.UnixMilli(c.ms.Add(1) - 1)
}
