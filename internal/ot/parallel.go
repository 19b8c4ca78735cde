package ot

import (
	"runtime"
	"sync"
)

// below this many transfers the goroutine overhead is not worth it
const minParallel = 8

// parallel calls f(i) for every i in [0, n) on a bounded set of
// goroutines. f must only touch state belonging to index i.
func parallel(n int, f func(i int)) {
	nThreads := runtime.GOMAXPROCS(0)
	if n < minParallel || nThreads < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}
	if n < nThreads {
		nThreads = n
	}

	chunk := (n + nThreads - 1) / nThreads
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
