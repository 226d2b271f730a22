package experiments

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Batch is a mini-batch of samples.
type Batch struct {
	X *tensor.Tensor // [b, History, H, W]
	Y *tensor.Tensor // [b, len(cells)]
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int {
	return b.X.Dim(0)
}

// Generator yields the samples of a split in mini-batches.
//
// Every sample is visited exactly once. The last batch holds the remainder
// when the split size is not a multiple of the batch size. Without shuffling
// samples come out in split order, which keeps temporally correlated
// responses aligned with their predictions.
type Generator struct {
	split     *Split
	batchSize int
	order     []int // nil when not shuffled
	pos       int
}

// DataGen returns a generator over split.
//
// When shuffle is set the visit order is a permutation drawn from rng; a nil
// rng uses the global source.
func DataGen(batchSize int, split *Split, shuffle bool, rng *rand.Rand) (*Generator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if split.X.Dim(0) != split.Y.Dim(0) {
		return nil, fmt.Errorf("%w: %d inputs for %d targets", tensor.ErrShape, split.X.Dim(0), split.Y.Dim(0))
	}

	g := &Generator{split: split, batchSize: batchSize}
	if shuffle {
		if rng != nil {
			g.order = rng.Perm(split.Len())
		} else {
			g.order = rand.Perm(split.Len())
		}
	}
	return g, nil
}

// NumBatches returns the total number of batches.
func (g *Generator) NumBatches() int {
	return (g.split.Len() + g.batchSize - 1) / g.batchSize
}

// Next returns the next batch, or io.EOF once the split is exhausted.
func (g *Generator) Next() (*Batch, error) {
	n := g.split.Len()
	if g.pos >= n {
		return nil, io.EOF
	}
	end := min(g.pos+g.batchSize, n)
	start := g.pos
	g.pos = end

	if g.order == nil {
		x, err := g.split.X.Slice(start, end)
		if err != nil {
			return nil, err
		}
		y, err := g.split.Y.Slice(start, end)
		if err != nil {
			return nil, err
		}
		return &Batch{X: x, Y: y}, nil
	}

	idx := g.order[start:end]
	x, err := g.split.X.Gather(idx)
	if err != nil {
		return nil, err
	}
	y, err := g.split.Y.Gather(idx)
	if err != nil {
		return nil, err
	}
	return &Batch{X: x, Y: y}, nil
}

// Reset rewinds the generator to the first batch.
func (g *Generator) Reset() {
	g.pos = 0
}
