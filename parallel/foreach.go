package parallel

import "sync"

// ForEach calls body for every integer from 0 to length, on at most limit
// goroutines at the same time. It returns once every call has returned.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return // No iterations to perform
	}
	if limit > length {
		limit = length
	}

	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				body(i)
			}
		}()
	}
	for i := 0; i < length; i++ {
		next <- i
	}
	close(next)

	wg.Wait() // Wait for all goroutines to finish
}
