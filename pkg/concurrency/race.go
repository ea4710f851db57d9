// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package concurrency

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// RaceTask is one competitor in a Race: an id for error reporting and a
// function to run under the combined cancellation context.
type RaceTask[R any] struct {
	ID string
	Run func(ctx context.Context) (R, error)
}

// RaceResult is the outcome of a successful Race.
type RaceResult[R any] struct {
	Winner  string
	Result  R
	Aborted bool
}

// Race runs every task concurrently under a combined cancellation context
// and returns as soon as the first task succeeds, cancelling the rest
// (§4.4). All task goroutines are awaited before Race returns, so a
// cancellation-induced error from a loser never leaks past this call. If
// ctx is already cancelled, Race returns {Aborted: true} immediately
// without starting any task; if ctx is cancelled while the tasks run and
// none has succeeded, Race also returns {Aborted: true}. Otherwise, if
// every task errors, an aggregate error naming every task id is returned.
func Race[R any](ctx context.Context, tasks []RaceTask[R]) (RaceResult[R], error) {
	if len(tasks) == 0 {
		return RaceResult[R]{}, errors.New("no tasks to race")
	}
	if ctx.Err() != nil {
		return RaceResult[R]{Aborted: true}, nil
	}

	combined, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		id  string
		res R
		err error
	}

	outcomes := make(chan outcome, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, t := range tasks {
		t := t
		go func() {
			defer wg.Done()
			res, err := t.Run(combined)
			outcomes <- outcome{id: t.ID, res: res, err: err}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var winner *outcome
	var errs []outcome
	for o := range outcomes {
		if o.err == nil && winner == nil {
			w := o
			winner = &w
			cancel()
			continue
		}
		if o.err != nil {
			errs = append(errs, o)
		}
	}

	if winner != nil {
		return RaceResult[R]{Winner: winner.id, Result: winner.res}, nil
	}
	if ctx.Err() != nil {
		return RaceResult[R]{Aborted: true}, nil
	}

	msg := "all tasks failed:"
	for _, e := range errs {
		msg += fmt.Sprintf(" %s=%v;", e.id, e.err)
	}
	return RaceResult[R]{}, errors.New(msg)
}
