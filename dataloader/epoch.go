package dataloader

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Epoch iterates over the batches of one epoch. It is not safe for concurrent use.
type Epoch[S any] struct {
	loader  *Loader[S]
	batches [][]int
	next    int

	// Only used when loader.NumWorkers > 0.
	ctx     context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	pending chan *pendingBatch[S]

	closeOnce sync.Once
	groupErr  error
	err       error
}

// pendingBatch is a batch being loaded by a worker. done is closed once batch
// or err are set.
type pendingBatch[S any] struct {
	done  chan struct{}
	batch Batch[S]
	err   error
}

func newEpoch[S any](ctx context.Context, l *Loader[S], batches [][]int) *Epoch[S] {
	e := &Epoch[S]{loader: l, batches: batches}
	if l.opts.NumWorkers == 0 {
		e.ctx = ctx
		return e
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.group, e.ctx = errgroup.WithContext(e.ctx)
	e.group.SetLimit(l.opts.NumWorkers)
	e.pending = make(chan *pendingBatch[S], 2*l.opts.NumWorkers)
	go e.schedule()
	return e
}

// schedule hands the batches to the workers, in order, and queues their
// pending results. It closes e.pending when all batches were scheduled or the
// epoch was canceled.
func (e *Epoch[S]) schedule() {
	defer close(e.pending)
	for _, indices := range e.batches {
		if e.ctx.Err() != nil {
			return
		}
		p := &pendingBatch[S]{done: make(chan struct{})}
		e.group.Go(func() error {
			defer close(p.done)
			p.batch, p.err = e.loader.loadBatch(indices)
			return p.err
		})
		select {
		case e.pending <- p:
		case <-e.ctx.Done():
			return
		}
	}
}

// Len returns the number of batches in the epoch.
func (e *Epoch[S]) Len() int { return len(e.batches) }

// Next returns the next batch, or io.EOF once all batches were returned.
// After any other error the epoch is over and subsequent calls return the same error.
func (e *Epoch[S]) Next() (Batch[S], error) {
	if e.err != nil {
		return Batch[S]{}, e.err
	}
	if e.next >= len(e.batches) {
		return Batch[S]{}, io.EOF
	}

	if e.pending == nil {
		if err := e.ctx.Err(); err != nil {
			e.err = err
			return Batch[S]{}, err
		}
		b, err := e.loader.loadBatch(e.batches[e.next])
		if err != nil {
			e.err = err
			return Batch[S]{}, err
		}
		e.next++
		return b, nil
	}

	if p, ok := <-e.pending; ok {
		<-p.done
		if p.err == nil {
			e.next++
			return p.batch, nil
		}
	}

	// A worker failed or the context was canceled: stop everything and report
	// the first error.
	e.Close()
	err := e.groupErr
	if err == nil {
		err = e.ctx.Err()
	}
	if err == nil {
		err = context.Canceled
	}
	e.err = err
	return Batch[S]{}, err
}

// Close stops the workers and waits for them to finish. It is safe to call more than once.
func (e *Epoch[S]) Close() {
	e.closeOnce.Do(func() {
		if e.cancel == nil {
			return
		}
		e.cancel()
		for range e.pending {
			// Drain so schedule can exit.
		}
		e.groupErr = e.group.Wait()
	})
}
