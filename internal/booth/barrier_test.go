package booth

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionBarrier_FiresOnce(t *testing.T) {
	var fired atomic.Int32
	barrier := newCompletionBarrier(3, func() { fired.Add(1) })

	assert.False(t, barrier.Done())
	assert.False(t, barrier.Done())
	assert.Equal(t, int32(0), fired.Load())

	assert.True(t, barrier.Done())
	assert.Equal(t, int32(1), fired.Load())

	assert.False(t, barrier.Done())
	assert.Equal(t, int32(1), fired.Load())
}

func TestCompletionBarrier_Concurrent(t *testing.T) {
	const n = 64
	var fired atomic.Int32
	var winners atomic.Int32
	barrier := newCompletionBarrier(n, func() { fired.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if barrier.Done() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, int32(1), winners.Load())
}
