package windowed_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slatewise/agreement/utils/unittest"
)

// The edge dump is the behavioural fingerprint of a log: one line per
// totals entry per edge, entries ordered by object, so identical logs
// produce byte-identical dumps.
func TestDumpEdges(t *testing.T) {
	validators := unittest.NewUniformValidators(5)
	node := newNode(t, 0)
	node.Insert(1, unittest.At(1000), 0)
	node.Insert(2, unittest.At(1001), 1)
	node.Insert(3, unittest.At(1001), 2)
	node.Insert(2, unittest.At(1002), 3)
	node.Insert(3, unittest.At(1002), 4)

	var out strings.Builder
	err := node.DumpEdges(&out, validators, time.UnixMilli(0))
	require.NoError(t, err)

	expected := strings.Join([]string{
		"1000,1,1",
		"1001,1,1", "1001,2,1", "1001,3,1",
		"1002,1,1", "1002,2,2", "1002,3,2",
		"1050,1,0", "1050,2,2", "1050,3,2",
		"1051,1,0", "1051,2,1", "1051,3,1",
		"1052,1,0", "1052,2,0", "1052,3,0",
	}, "\n") + "\n"
	require.Equal(t, expected, out.String())
}

func TestDumpEdges_EmptyLog(t *testing.T) {
	validators := unittest.NewUniformValidators(3)
	node := newNode(t, 0)

	var out strings.Builder
	err := node.DumpEdges(&out, validators, time.UnixMilli(0))
	require.NoError(t, err)
	require.Empty(t, out.String())
}
