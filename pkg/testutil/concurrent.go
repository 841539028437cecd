package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "idverse/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	Conflicts int32
	NotFounds int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.Conflicts + r.NotFounds
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes.
// Already-revoked, duplicate-registration and conflict errors count as
// conflicts.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, errs, conflicts, notFounds atomic.Int32

	start := make(chan struct{})
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case isConflict(err):
				conflicts.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
	}
}

// RunConcurrentCollect executes fn in parallel and collects every result.
func RunConcurrentCollect[T any](goroutines int, fn func(idx int) (T, error)) ([]T, []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]T, 0, goroutines)
	var errs []error

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn(i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, v)
		}()
	}
	wg.Wait()
	return results, errs
}

func isConflict(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeAlreadyRevoked) ||
		dErrors.HasCode(err, dErrors.CodeDuplicateRegistration) ||
		dErrors.HasCode(err, dErrors.CodeConflict)
}
