package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slatewise/agreement/consensus/windowed/model"
)

func TestQuorumThreshold(t *testing.T) {
	// The threshold is the smallest t with 3t > 2*total.
	cases := []struct {
		total    uint64
		expected uint64
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 3},
		{7, 5},
		{10, 7},
		{1000, 667},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, model.QuorumThreshold(c.total), "total %d", c.total)
	}
}

func TestErrorPredicates(t *testing.T) {
	confErr := model.NewConfigurationErrorf("bad window %d", 0)
	require.True(t, model.IsConfigurationError(confErr))
	require.False(t, model.IsInvalidVoteEventError(confErr))

	voteErr := model.NewInvalidVoteEventErrorf(7, "bad time %q", "x")
	require.True(t, model.IsInvalidVoteEventError(voteErr))
	require.False(t, model.IsConfigurationError(voteErr))
	require.Contains(t, voteErr.Error(), "line 7")
}
