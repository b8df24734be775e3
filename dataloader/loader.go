// Package dataloader turns an indexable dataset into a stream of batches.
//
// A Loader combines a Dataset, a Sampler (which indices make an epoch) and a
// batch size. Examples are read by a pool of NumWorkers goroutines, but batches
// are always delivered in sampler order, so sequential epochs are
// reproducible regardless of the parallelism.
//
// Loader also implements gomlx's train.Dataset when a Collate function is
// given, so it can be fed directly to a training loop.
package dataloader

import (
	"context"
	"io"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Dataset is an indexable collection of examples. Example must be safe for
// concurrent use when the Loader has NumWorkers > 0.
type Dataset[S any] interface {
	Name() string
	Len() int
	Example(i int) (S, error)
}

// CollateFn converts a batch of examples to the inputs and labels of a training step.
type CollateFn[S any] func(samples []S) (inputs, labels []*tensors.Tensor, err error)

// Options configures a Loader.
type Options[S any] struct {
	// BatchSize is the maximum number of examples per batch. Required.
	BatchSize int

	// NumWorkers is the number of goroutines reading examples. If 0 the examples
	// are read in the goroutine calling Epoch.Next.
	NumWorkers int

	// Sampler defines the epoch. Defaults to a SequentialSampler over the whole dataset.
	Sampler Sampler

	// DropLast drops the last batch of an epoch if it is smaller than BatchSize.
	DropLast bool

	// Collate is required only to use the Loader as a train.Dataset.
	Collate CollateFn[S]
}

// Batch is a group of examples and their dataset indices.
type Batch[S any] struct {
	Indices []int
	Samples []S
}

// Len returns the number of examples in the batch.
func (b Batch[S]) Len() int { return len(b.Indices) }

// Loader yields batches of a Dataset. Create it with New.
type Loader[S any] struct {
	ds   Dataset[S]
	opts Options[S]

	// current epoch used by Yield.
	current *Epoch[S]
}

var _ train.Dataset = (*Loader[int])(nil)

// New creates a Loader over ds.
//
// It panics on invalid options (non-positive BatchSize or negative NumWorkers), since
// those are programming errors.
func New[S any](ds Dataset[S], opts Options[S]) *Loader[S] {
	if opts.BatchSize <= 0 {
		exceptions.Panicf("dataloader for %q: BatchSize must be > 0, got %d", ds.Name(), opts.BatchSize)
	}
	if opts.NumWorkers < 0 {
		exceptions.Panicf("dataloader for %q: NumWorkers must be >= 0, got %d", ds.Name(), opts.NumWorkers)
	}
	if opts.Sampler == nil {
		opts.Sampler = SequentialSampler{N: ds.Len()}
	}
	return &Loader[S]{ds: ds, opts: opts}
}

// Name implements train.Dataset.
func (l *Loader[S]) Name() string { return l.ds.Name() }

// Dataset returns the underlying dataset.
func (l *Loader[S]) Dataset() Dataset[S] { return l.ds }

// BatchSize returns the configured batch size.
func (l *Loader[S]) BatchSize() int { return l.opts.BatchSize }

// NumWorkers returns the configured number of workers.
func (l *Loader[S]) NumWorkers() int { return l.opts.NumWorkers }

// Sampler returns the sampler defining each epoch.
func (l *Loader[S]) Sampler() Sampler { return l.opts.Sampler }

// NumSamples is the number of examples yielded in one epoch.
func (l *Loader[S]) NumSamples() int {
	n := l.opts.Sampler.Len()
	if l.opts.DropLast {
		n -= n % l.opts.BatchSize
	}
	return n
}

// NumBatches is the number of batches yielded in one epoch.
func (l *Loader[S]) NumBatches() int {
	n := l.opts.Sampler.Len()
	if l.opts.DropLast {
		return n / l.opts.BatchSize
	}
	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// splitBatches groups the indices of one epoch into batches.
func (l *Loader[S]) splitBatches(indices []int) [][]int {
	batches := make([][]int, 0, l.NumBatches())
	for start := 0; start < len(indices); start += l.opts.BatchSize {
		end := min(start+l.opts.BatchSize, len(indices))
		if end-start < l.opts.BatchSize && l.opts.DropLast {
			break
		}
		batches = append(batches, indices[start:end])
	}
	return batches
}

// loadBatch reads the examples of one batch.
func (l *Loader[S]) loadBatch(indices []int) (Batch[S], error) {
	b := Batch[S]{Indices: indices, Samples: make([]S, len(indices))}
	for i, idx := range indices {
		s, err := l.ds.Example(idx)
		if err != nil {
			return Batch[S]{}, errors.WithMessagef(err, "dataset %q failed to load example %d", l.ds.Name(), idx)
		}
		b.Samples[i] = s
	}
	return b, nil
}

// Iter starts a new epoch. The caller must call Epoch.Close when done, even if
// the epoch was not fully consumed.
func (l *Loader[S]) Iter(ctx context.Context) *Epoch[S] {
	batches := l.splitBatches(l.opts.Sampler.Indices())
	klog.V(1).Infof("dataloader %q: starting epoch with %d batches, %d workers", l.ds.Name(), len(batches), l.opts.NumWorkers)
	return newEpoch(ctx, l, batches)
}

// Reset implements train.Dataset. The next call to Yield starts a new epoch.
func (l *Loader[S]) Reset() {
	if l.current != nil {
		l.current.Close()
		l.current = nil
	}
}

// Yield implements train.Dataset. It returns io.EOF at the end of each epoch,
// and the following call starts a new one.
func (l *Loader[S]) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	if l.opts.Collate == nil {
		err = errors.Errorf("dataloader for %q has no Collate function, it can't be used as a train.Dataset", l.ds.Name())
		return
	}
	if l.current == nil {
		l.current = l.Iter(context.Background())
	}
	batch, err := l.current.Next()
	if err != nil {
		l.current.Close()
		l.current = nil
		return
	}
	inputs, labels, err = l.opts.Collate(batch.Samples)
	if err != nil {
		err = errors.WithMessagef(err, "dataloader for %q failed to collate batch", l.ds.Name())
	}
	return
}

// ReadAll consumes one full epoch and returns its batches. Useful for small
// datasets and tests.
func (l *Loader[S]) ReadAll(ctx context.Context) ([]Batch[S], error) {
	epoch := l.Iter(ctx)
	defer epoch.Close()
	var batches []Batch[S]
	for {
		b, err := epoch.Next()
		if err == io.EOF {
			return batches, nil
		}
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
}
