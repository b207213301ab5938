package workerpool

import (
	"context"
	"sync"
)

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

// Pool runs submitted tasks on a fixed number of goroutines. Submit all tasks,
// call Close, and drain the channel returned by Run until it is closed.
type Pool[T any] struct {
	workers int
	tasks   chan Task[T]
	wg      sync.WaitGroup
	once    sync.Once
}

func New[T any](workers, buffer int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool[T]{
		workers: workers,
		tasks:   make(chan Task[T], buffer),
	}
}

// Submit blocks until a worker or the buffer accepts t, or ctx is done.
func (p *Pool[T]) Submit(ctx context.Context, t Task[T]) error {
	if p == nil || t == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- t:
		return nil
	}
}

func (p *Pool[T]) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.tasks) })
}

// Run starts the workers. The returned channel is closed once every worker has
// exited, either because the task channel was closed or ctx was cancelled.
func (p *Pool[T]) Run(ctx context.Context) <-chan Result[T] {
	if p == nil {
		out := make(chan Result[T])
		close(out)
		return out
	}

	out := make(chan Result[T], p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					v, err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result[T]{Value: v, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}

// Map runs fn over items on a pool of the given size and returns the results
// in completion order. It returns ctx.Err() if ctx ends before every item is done.
func Map[I, T any](ctx context.Context, workers int, items []I, fn func(context.Context, I) (T, error)) ([]Result[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := New[T](workers, len(items))
	results := p.Run(ctx)

	go func() {
		defer p.Close()
		for _, it := range items {
			item := it
			if err := p.Submit(ctx, func(ctx context.Context) (T, error) { return fn(ctx, item) }); err != nil {
				return
			}
		}
	}()

	out := make([]Result[T], 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	if len(out) < len(items) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}
	return out, nil
}
