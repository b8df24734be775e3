package dataloader

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gomlx/exceptions"
)

// Sampler decides which examples of a dataset make one epoch, and in which order.
type Sampler interface {
	// Len is the number of indices returned by Indices.
	Len() int

	// Indices returns the dataset indices of the next epoch.
	Indices() []int
}

// SequentialSampler visits every example once, in index order.
type SequentialSampler struct {
	N int
}

// Len implements Sampler.
func (s SequentialSampler) Len() int { return s.N }

// Indices implements Sampler. It always returns 0, 1, ..., N-1.
func (s SequentialSampler) Indices() []int {
	indices := make([]int, s.N)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// RandomSampler draws a fixed number of indices per epoch uniformly with
// replacement, so the epoch length doesn't depend on the dataset size.
type RandomSampler struct {
	n, numSamples int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSampler creates a sampler drawing numSamples indices from [0, n).
// If seed is 0 a time based seed is used.
//
// It panics if n or numSamples are not positive.
func NewRandomSampler(n, numSamples int, seed uint64) *RandomSampler {
	if n <= 0 {
		exceptions.Panicf("RandomSampler requires a non-empty dataset, got n=%d", n)
	}
	if numSamples <= 0 {
		exceptions.Panicf("RandomSampler requires numSamples > 0, got %d", numSamples)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomSampler{
		n:          n,
		numSamples: numSamples,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Len implements Sampler.
func (s *RandomSampler) Len() int { return s.numSamples }

// Indices implements Sampler. Each call draws a new epoch.
func (s *RandomSampler) Indices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices := make([]int, s.numSamples)
	for i := range indices {
		indices[i] = s.rng.IntN(s.n)
	}
	return indices
}
