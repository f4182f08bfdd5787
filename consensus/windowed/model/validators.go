package model

import (
	"golang.org/x/exp/constraints"
)

// ValidatorSet is the registry the voting core consults for weights
// and the quorum threshold. It is a pure lookup: implementations must
// not mutate during a call into the core.
//
// Weight returns 0 for unknown validators. Such votes contribute
// nothing to any total but still occupy the validator's active slot in
// a tally, so a contradicting vote from an unknown validator is still
// reported as a fault.
type ValidatorSet[V comparable, W constraints.Unsigned] interface {
	// Weight returns the voting weight of the given validator, 0 if
	// the validator is unknown.
	Weight(validator V) W

	// Quorum returns the summed weight at or above which an object is
	// considered supported.
	Quorum() W
}

// Sized is an optional extension of ValidatorSet for registries that
// know their membership count.
type Sized interface {
	Size() int
}

// QuorumThreshold returns the minimal weight required for quorum given
// the total weight of all validators: the smallest t such that
// 3*t > 2*total. With uniform weight 1 and n = total validators this
// tolerates floor((n-1)/3) byzantine members.
func QuorumThreshold[W constraints.Unsigned](total W) W {
	floorOneThird := total / 3
	res := 2 * floorOneThird
	rem := total % 3
	if rem <= 1 {
		res = res + 1
	} else {
		res += rem
	}
	return res
}
