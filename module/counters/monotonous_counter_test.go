package counters_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slatewise/agreement/module/counters"
)

func TestMonotonousCounter_StrictIncrease(t *testing.T) {
	counter := counters.NewMonotonousCounter(3)
	require.EqualValues(t, 3, counter.Value())

	require.False(t, counter.Set(2))
	require.EqualValues(t, 3, counter.Value())

	require.False(t, counter.Set(3))
	require.EqualValues(t, 3, counter.Value())

	require.True(t, counter.Set(4))
	require.EqualValues(t, 4, counter.Value())
}

func TestMonotonousCounter_Concurrent(t *testing.T) {
	counter := counters.NewMonotonousCounter(0)
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			counter.Set(v)
		}(uint64(i))
	}
	wg.Wait()
	require.EqualValues(t, 100, counter.Value())
}
