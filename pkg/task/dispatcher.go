// Package task provides the fire-and-forget dispatch used for purchase
// watchers and fulfillment runs. Spawners never observe the task's outcome;
// everything is signaled through the store and notifications.
package task

import (
	"context"

	"go.uber.org/zap"
)

// Dispatcher runs a function without the caller waiting for it.
type Dispatcher interface {
	Dispatch(name string, fn func(ctx context.Context))
}

// Go dispatches each task on its own goroutine. The context outlives the
// spawning request; tasks stop with the process.
type Go struct {
	ctx context.Context
}

func NewGo(ctx context.Context) *Go {
	return &Go{ctx: ctx}
}

func (g *Go) Dispatch(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		fn(g.ctx)
	}()
}

// Sync runs tasks inline. Used in tests to make dispatch deterministic.
type Sync struct{}

func (Sync) Dispatch(name string, fn func(ctx context.Context)) {
	fn(context.Background())
}
