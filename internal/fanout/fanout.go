// Package fanout runs independent calls concurrently and joins them without
// letting one failure affect the others.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result holds either the value a branch produced or the error it failed with.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

type Branch[T any] func(ctx context.Context) (T, error)

type Task[T any] struct {
	Name string
	Run  Branch[T]
}

// Do runs every branch and waits for all of them. results[i] belongs to
// branches[i]. Branches share ctx but a failing branch never cancels it.
func Do[T any](ctx context.Context, branches ...Branch[T]) []Result[T] {
	return DoLimit(ctx, -1, branches...)
}

// DoLimit is Do with at most limit branches in flight. A negative limit means
// no limit.
func DoLimit[T any](ctx context.Context, limit int, branches ...Branch[T]) []Result[T] {
	results := make([]Result[T], len(branches))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, branch := range branches {
		g.Go(func() error {
			results[i] = run(ctx, branch)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Map runs named tasks and keys the results by name.
func Map[T any](ctx context.Context, tasks ...Task[T]) map[string]Result[T] {
	branches := make([]Branch[T], len(tasks))
	for i, t := range tasks {
		branches[i] = t.Run
	}

	results := Do(ctx, branches...)
	out := make(map[string]Result[T], len(tasks))
	for i, t := range tasks {
		out[t.Name] = results[i]
	}
	return out
}

func run[T any](ctx context.Context, branch Branch[T]) (res Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[T]{Err: fmt.Errorf("branch panicked: %v", p)}
		}
	}()
	if branch == nil {
		return Result[T]{Err: fmt.Errorf("nil branch")}
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{Err: err}
	}
	v, err := branch(ctx)
	return Result[T]{Value: v, Err: err}
}
