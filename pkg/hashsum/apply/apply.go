// Package apply runs a function over many paths on a bounded worker pool
// and returns the results in input order.
package apply

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/tuner"
)

// Result is the outcome for one input path.
type Result[T any] struct {
	// Path is the input path, unchanged.
	Path string

	// Value is the function result. It is the zero value when Err is set.
	Value T

	// Err is the access error that left this slot empty, if any.
	Err error
}

// Ok reports whether the slot holds a value.
func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Options configures Apply.
type Options struct {
	// Workers bounds the number of concurrent tasks. Zero or negative
	// sizes the pool from the detected CPU count.
	Workers int

	// OnProgress, if set, is called after each task finishes with the
	// number of finished tasks and the total. It is called from worker
	// goroutines and must be safe for concurrent use.
	OnProgress func(done, total int)
}

// Apply calls fn once per path and returns one Result per path in input
// order.
//
// A task that fails with an access error (see digest.IsAccessError)
// leaves an empty slot carrying that error; its siblings are unaffected.
// Any other error fails the call, but only after every task has run: the
// batch is never cancelled part way. When several tasks fail, the error
// of the earliest path is returned.
func Apply[T any](paths []string, fn func(string) (T, error), opts Options) ([]Result[T], error) {
	results := make([]Result[T], len(paths))
	fatal := make([]error, len(paths))

	workers := opts.Workers
	if workers <= 0 {
		workers = tuner.Workers(0)
	}

	var (
		g    errgroup.Group
		done atomic.Int64
	)
	g.SetLimit(workers)

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			defer func() {
				if opts.OnProgress != nil {
					opts.OnProgress(int(done.Add(1)), len(paths))
				}
			}()

			value, err := fn(path)
			switch {
			case err == nil:
				results[i].Value = value
			case digest.IsAccessError(err):
				results[i].Err = err
			default:
				fatal[i] = err
			}
			// Never return the error to the group: a non-nil return
			// would not cancel siblings anyway, and the earliest
			// failure by input position is reported below.
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range fatal {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Values returns the values of the filled slots and the paths of the
// empty ones.
func Values[T any](results []Result[T]) (values []T, missing []string) {
	for _, r := range results {
		if r.Ok() {
			values = append(values, r.Value)
			continue
		}
		missing = append(missing, r.Path)
	}
	return values, missing
}
