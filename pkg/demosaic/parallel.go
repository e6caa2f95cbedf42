package demosaic

import (
	"runtime"
	"sync"
)

// parallelRows splits the half-open row range [y0, y1) into contiguous
// chunks and runs fn on each from its own goroutine, blocking until all
// chunks finish. Callers must only write rows inside their chunk; reads may
// span the whole buffer. workers <= 0 selects GOMAXPROCS.
func parallelRows(workers, y0, y1 int, fn func(start, end int)) {
	rows := y1 - y0
	if rows <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}
	if workers == 1 {
		fn(y0, y1)
		return
	}

	chunk := rows / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := y0 + i*chunk
		end := start + chunk
		if i == workers-1 {
			end = y1
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
