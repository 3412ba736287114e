// Package parallel contains parallel LoopUntil() and parallel ForEach().
package parallel

import (
	"sync"
	"sync/atomic"
)

// LoopStopper is an interface to check if the loop should stop.
type LoopStopper interface {

	// Load reports true if the loop should stop.
	Load() bool
}

// Loop represents the number of goroutines to run.
type Loop int

// LoopUntil starts 'l' goroutines that hand out the integers 0 .. limit-1 to
// yield until one call returns true. It reports whether some call returned true.
func (l Loop) LoopUntil(limit uint32, yield func(i uint32, ender LoopStopper) bool) (found bool) {
	var (
		i     uint32         // Atomic counter for the current index.
		ender atomic.Bool    // Atomic boolean to signal stop.
		hit   atomic.Bool    // Whether a yield returned true.
		wg    sync.WaitGroup // WaitGroup to wait for all goroutines.
	)
	if l <= 0 {
		l = 1
	}

	for n := 0; n < int(l); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !ender.Load() {
				current := atomic.AddUint32(&i, 1) - 1
				if current >= limit {
					return
				}
				if yield(current, &ender) {
					hit.Store(true)
					ender.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
	return hit.Load()
}
